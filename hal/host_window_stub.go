//go:build !cgo || tinygo

package hal

import "errors"

func RunPreview(_ *PreviewLink, _ string, _ int) error {
	return errors.New("preview window requires cgo (build/run with CGO_ENABLED=1)")
}
