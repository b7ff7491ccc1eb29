// VariantKey
//
// config.go
//
// @license MIT

package variantkey

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TableSet bundles the on-disk paths of the frozen binary tables an
// application built on this package typically opens together: the two
// RSID<->VariantKey mirror tables, the NRVK side table, and the genoref
// reference sequence. It carries no write path and no environment-variable
// fallback, matching spec §6 ("no write path … no environment variables");
// it exists only so an embedding application can keep table locations out
// of code.
type TableSet struct {
	RSVKPath    string `toml:"rsvk_path"`
	VKRSPath    string `toml:"vkrs_path"`
	NRVKPath    string `toml:"nrvk_path"`
	GenoRefPath string `toml:"genoref_path"`
}

// LoadTableSet reads a TOML file describing where the binary tables live
// on disk. It does not open or mmap any of them; callers pass the
// resulting paths to OpenMappedFile/OpenMappedFileDiag themselves.
func LoadTableSet(path string) (*TableSet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("variantkey: config %s: %w", path, err)
	}
	var ts TableSet
	if _, err := toml.DecodeFile(path, &ts); err != nil {
		return nil, fmt.Errorf("variantkey: parsing config %s: %w", path, err)
	}
	return &ts, nil
}
