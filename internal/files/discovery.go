package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marketpipe/internal/errors"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery finds source files below a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// resolve joins relative paths onto the base path and rejects any path
// that ends up outside it. Without a base path every path is accepted.
func (d *Discovery) resolve(path string) (string, error) {
	if d.basePath == "" {
		return path, nil
	}
	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(d.basePath, path)
	}

	base, err := filepath.Abs(d.basePath)
	if err != nil {
		return "", err
	}
	target, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, target)
	if err != nil || (rel != "." && !filepath.IsLocal(rel)) {
		return "", fmt.Errorf("path %s is outside %s", path, d.basePath)
	}
	return fullPath, nil
}

// FindSourceFiles lists the CSV and xlsx files in dir, oldest first. A
// relative dir is taken from the base path.
func (d *Discovery) FindSourceFiles(dir string) ([]FileInfo, error) {
	fullPath, err := d.resolve(dir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ExtCSV, ExtXLSX:
		default:
			continue
		}
		// Excel lock files
		if strings.HasPrefix(name, "~$") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// ResolveSource returns path itself for a file, or the latest source file
// when path is a directory
func (d *Discovery) ResolveSource(path string) (string, error) {
	if path == "" {
		return "", errors.NewAppValidationError("no source path configured")
	}
	fullPath, err := d.resolve(path)
	if err != nil {
		return "", errors.NewAppValidationError(err.Error())
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return "", errors.NewParsingError("source not found", err).WithContext("path", fullPath)
	}
	if !info.IsDir() {
		return fullPath, nil
	}

	files, err := d.FindSourceFiles(path)
	if err != nil {
		return "", errors.NewParsingError("failed to list source directory", err)
	}
	latest, ok := GetLatestFile(files)
	if !ok {
		return "", errors.NewParsingError("no CSV or xlsx file in source directory", nil).WithContext("path", fullPath)
	}
	return latest.Path, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}
	return latest, true
}
