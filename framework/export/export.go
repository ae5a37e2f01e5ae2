package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"site/framework/router"
)

const notFoundFile = "404.html"

// unmatchedPath is requested to render the catch-all into 404.html.
const unmatchedPath = "/__export_not_found__"

type Config struct {
	Handler http.Handler
	OutDir  string

	// Paths are the escaped request paths to render; each must answer 200.
	Paths []string

	// StaticDir is copied to OutDir under StaticPrefix when set.
	StaticDir    string
	StaticPrefix string

	Logger *slog.Logger
}

type Result struct {
	Pages  []string
	Assets int
}

// Run renders every path through the handler and writes the site to OutDir.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Handler == nil {
		return Result{}, errors.New("export handler is required")
	}
	outDir := strings.TrimSpace(cfg.OutDir)
	if outDir == "" {
		return Result{}, errors.New("export output directory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	result := Result{Pages: make([]string, 0, len(cfg.Paths)+1)}
	seen := make(map[string]struct{}, len(cfg.Paths))

	for _, requestPath := range cfg.Paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		cleaned := router.CleanPath(requestPath)
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}

		file, err := PageFile(cleaned)
		if err != nil {
			return result, err
		}
		body, status, err := render(ctx, cfg.Handler, cleaned)
		if err != nil {
			return result, err
		}
		if status != http.StatusOK {
			return result, fmt.Errorf("export %q: status %d", cleaned, status)
		}

		target := filepath.Join(outDir, filepath.FromSlash(file))
		if err := writeFile(target, body); err != nil {
			return result, err
		}
		result.Pages = append(result.Pages, cleaned)
		logger.Debug("exported page", "path", cleaned, "file", target)
	}

	body, status, err := render(ctx, cfg.Handler, unmatchedPath)
	if err != nil {
		return result, err
	}
	if status != http.StatusNotFound {
		return result, fmt.Errorf("export %s: catch-all answered status %d", notFoundFile, status)
	}
	if err := writeFile(filepath.Join(outDir, notFoundFile), body); err != nil {
		return result, err
	}
	result.Pages = append(result.Pages, notFoundFile)

	if strings.TrimSpace(cfg.StaticDir) != "" {
		copied, err := copyDir(cfg.StaticDir, filepath.Join(outDir, filepath.FromSlash(strings.Trim(cfg.StaticPrefix, "/"))))
		if err != nil {
			return result, fmt.Errorf("copy static assets: %w", err)
		}
		result.Assets = copied
	}

	return result, nil
}

// PageFile maps an escaped request path to the file a static host answers it
// with. Static hosts decode the path before looking up files, so the file name
// is decoded too.
func PageFile(requestPath string) (string, error) {
	cleaned := router.CleanPath(requestPath)
	if cleaned == "/" {
		return "index.html", nil
	}

	segments := strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
	for idx, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			return "", fmt.Errorf("page file for %q: %w", requestPath, err)
		}
		if decoded == "." || decoded == ".." || strings.Contains(decoded, "/") {
			return "", fmt.Errorf("page file for %q: segment %q is not a file name", requestPath, decoded)
		}
		segments[idx] = decoded
	}

	return path.Join(append(segments, "index.html")...), nil
}

func render(ctx context.Context, handler http.Handler, requestPath string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestPath, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request for %q: %w", requestPath, err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Body.Bytes(), rec.Code, nil
}

func writeFile(target string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %q: %w", target, err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", target, err)
	}
	return nil
}

func copyDir(src string, dst string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(filePath string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, filePath)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		if err := copyFile(filePath, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
