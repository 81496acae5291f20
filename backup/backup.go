// Package backup keeps one copy of the SQLite database file per day.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileName is the name of the backup taken on day.
func FileName(day time.Time) string {
	return fmt.Sprintf("auto_backup_%s.db", day.Format("20060102"))
}

// Daily copies src into dir as auto_backup_YYYYMMDD.db for now's date. It
// returns the backup path and whether a copy was made; an existing backup for
// the day is left alone.
func Daily(src, dir string, now time.Time) (string, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, FileName(now))

	if _, err := os.Stat(dst); err == nil {
		return dst, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, err
	}

	if err := copyFile(src, dst); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
