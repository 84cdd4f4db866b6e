package crunch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/pkg/formats"
)

var intermediateExts = []string{formats.ExtCharacter, formats.ExtRig, formats.ExtStatic, formats.ExtMaterialLib}

// isTemp reports whether a file in the conversion directory is a crunch
// leftover: a platform file or an intermediate document.
func isTemp(name string) bool {
	if strings.HasSuffix(name, "_"+formats.DefaultPlatform) {
		return true
	}
	for _, ext := range intermediateExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// CleanIntermediates removes crunch leftovers from dir and the cruncher logs
// from its output directory. It returns the removed paths.
func CleanIntermediates(dir string, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var removed []string
	remove := func(dir string, match func(string) bool) error {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "reading %s", dir)
		}
		for _, e := range entries {
			if e.IsDir() || !match(e.Name()) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				return errors.Wrapf(err, "removing %s", path)
			}
			log.Debug("removed temp file", zap.String("file", e.Name()))
			removed = append(removed, path)
		}
		return nil
	}

	if err := remove(dir, isTemp); err != nil {
		return removed, err
	}
	isLog := func(name string) bool { return strings.HasSuffix(name, ".log") }
	if err := remove(filepath.Join(dir, formats.OutputDir), isLog); err != nil {
		return removed, err
	}
	return removed, nil
}
