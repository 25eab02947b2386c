package report

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// preparePDF stages src as a known-good merge input at dst. The merge
// rejects encrypted inputs, so a decryption attempt runs first: it lifts
// owner-password restrictions without needing a password. A file the
// attempt cannot decrypt is staged as-is and validation decides: a
// user-password-protected or corrupt file is rejected here, never aborting
// the whole compilation.
func (c *Compiler) preparePDF(src, dst string) (int, error) {
	if err := api.DecryptFile(src, dst, c.conf); err != nil {
		data, rerr := os.ReadFile(src)
		if rerr != nil {
			return 0, fmt.Errorf("read pdf: %v", rerr)
		}
		if werr := os.WriteFile(dst, data, 0o644); werr != nil {
			return 0, fmt.Errorf("stage pdf: %v", werr)
		}
	}

	if err := api.ValidateFile(dst, c.conf); err != nil {
		return 0, fmt.Errorf("invalid or password-protected pdf: %v", err)
	}
	pages, err := api.PageCountFile(dst)
	if err != nil {
		return 0, fmt.Errorf("page count: %v", err)
	}
	return pages, nil
}

// prepareImage embeds one image file as a single A4 page, centered and
// scaled to fit with a margin.
func (c *Compiler) prepareImage(src, dst string) error {
	imp, err := api.Import("form:A4, pos:c, sc:0.9 rel", types.POINTS)
	if err != nil {
		return fmt.Errorf("image import config: %v", err)
	}
	if err := api.ImportImagesFile([]string{src}, dst, imp, c.conf); err != nil {
		return fmt.Errorf("embed image: %v", err)
	}
	return nil
}
