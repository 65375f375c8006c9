// Package layout derives output paths and creates the course folder tree:
//
//	<base>/<COURSE>/database.xlsx
//	<base>/<COURSE>/Domande/Topic<N>/<number>.png
package layout

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/use-agent/examshot/models"
)

// QuestionsDir is the per-course folder holding topic folders.
const QuestionsDir = "Domande"

// SourceCopyName is the base name of the spreadsheet copy in each course folder.
const SourceCopyName = "database"

// TopicDir returns the folder of one topic.
func TopicDir(base, course, topic string) string {
	return filepath.Join(base, course, QuestionsDir, topic)
}

// QuestionPath returns the image path of one question. An existing file at
// this path means the question has already been captured.
func QuestionPath(base, course, topic string, number int) string {
	return filepath.Join(TopicDir(base, course, topic), strconv.Itoa(number)+".png")
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Provision creates the folder tree for every course and topic of s under
// base. Existing folders are left alone. When source is non-empty it is
// copied into every course folder, replacing any previous copy.
func Provision(s *models.Structure, base, source string) error {
	slog.Info("creating folder structure", "base", base, "courses", len(s.Courses))

	if err := mkdir(base); err != nil {
		return err
	}
	for _, c := range s.Courses {
		courseDir := filepath.Join(base, c.Name)
		if err := mkdir(courseDir); err != nil {
			return err
		}
		if source != "" {
			dst := filepath.Join(courseDir, SourceCopyName+strings.ToLower(filepath.Ext(source)))
			if sameFile(source, dst) {
				slog.Info("source already in course folder, not copying", "path", dst)
			} else if err := copyFile(source, dst); err != nil {
				return models.NewError(models.ErrCodeFilesystem, "failed to copy "+source+" to "+dst, err)
			}
		}
		if err := mkdir(filepath.Join(courseDir, QuestionsDir)); err != nil {
			return err
		}
		for _, topic := range c.Topics {
			if err := mkdir(TopicDir(base, c.Name, topic)); err != nil {
				return err
			}
		}
	}

	slog.Info("folder structure ready", "base", base)
	return nil
}

func mkdir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return models.NewError(models.ErrCodeFilesystem, "failed to create "+dir, err)
	}
	return nil
}

// sameFile reports whether a and b name the same existing file.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyFile copies src to dst through a temporary file and carries over the
// modification time. dst is replaced only once the copy is complete.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file", "path", tmpName, "error", rmErr)
		}
		return err
	}

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fail(err)
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fail(err)
	}
	return nil
}

// WriteFile writes data to path through a temporary file in the same
// folder, so path only ever exists with complete content.
func WriteFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			slog.Warn("failed to remove temp file", "path", tmpName, "error", rmErr)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
