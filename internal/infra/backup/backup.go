// Package backup produces versioned snapshots of store files before a
// migration step mutates them. Backups are write-once: they are never
// modified or deleted after creation.
package backup

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// maxSuffixProbes bounds the search for a free backup name. Hitting it means
// something is mass-producing backups and deserves a hard error.
const maxSuffixProbes = 100

// VersionedCopy copies src to src+".v"+label and returns the backup path.
// When that name is taken (a previous run at the same version), a numeric
// suffix is probed until a free name is found, so repeated runs at one
// version never clobber an earlier snapshot.
//
// A missing src is not an error: a fresh store has nothing to back up yet.
func VersionedCopy(src, label string) (string, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		log.Printf("[backup] %s does not exist yet, nothing to back up", src)
		return "", nil
	}

	dst := fmt.Sprintf("%s.v%s", src, label)
	for i := 1; ; i++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		if i > maxSuffixProbes {
			return "", fmt.Errorf("no free backup name for %s at version %s", src, label)
		}
		dst = fmt.Sprintf("%s.v%s.%d", src, label, i)
	}

	if err := copyFile(src, dst); err != nil {
		return "", fmt.Errorf("backup %s: %w", src, err)
	}

	log.Printf("[backup] wrote %s", dst)
	return dst, nil
}

// copyFile writes dst via a temp file in the same directory and renames it
// into place, so a crash mid-copy never leaves a truncated backup under the
// final name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dst)
}
