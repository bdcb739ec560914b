// internal/preview/converter.go
package preview

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strconv"
    "strings"

    "github.com/disintegration/imaging"

    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// ErrPageNotFound is returned when a page index past the produced previews
// is requested.
var ErrPageNotFound = errors.New("preview page not found")

// ContentTypeUnknown marks a degraded result: the original file is served
// unmodified because it could not be re-encoded.
const ContentTypeUnknown = "unknown"

const previewFormat = "jpg"

// Result is the outcome of one conversion. Paths are ordered by page.
type Result struct {
    ContentType string
    Paths       []string
}

// Config bounds the produced artifacts.
type Config struct {
    Dir       string
    MaxPages  int
    MaxWidth  int
    MaxHeight int
    Quality   int
}

// Converter turns a source document into cached preview artifacts under the
// owner's preview directory. Artifact names derive deterministically from the
// source basename; their existence on disk is the cache, there is no separate
// metadata record. Two concurrent conversions of the same uncached source may
// both convert and write identical files, which is harmless.
type Converter struct {
    config   *Config
    renderer Renderer
    logger   logger.Logger
}

func NewConverter(config *Config, renderer Renderer, log logger.Logger) *Converter {
    return &Converter{
        config:   config,
        renderer: renderer,
        logger:   log,
    }
}

// Produce converts sourcePath according to its declared media type.
// Paginated documents are rasterized page by page (capped at MaxPages),
// raster images are downscaled and re-encoded, anything else passes through
// unchanged.
func (c *Converter) Produce(ctx context.Context, ownerID, sourcePath, mediaType string) (*Result, error) {
    switch {
    case mediaType == "application/pdf":
        return c.convertPaginated(ctx, ownerID, sourcePath)
    case strings.HasPrefix(mediaType, "image/"):
        return c.resizeImage(ownerID, sourcePath)
    default:
        return &Result{ContentType: mediaType, Paths: []string{sourcePath}}, nil
    }
}

// PagePath returns the artifact for the 1-based page index.
func (c *Converter) PagePath(res *Result, page int) (string, error) {
    if page < 1 || page > len(res.Paths) {
        return "", fmt.Errorf("%w: page %d of %d", ErrPageNotFound, page, len(res.Paths))
    }
    return res.Paths[page-1], nil
}

func (c *Converter) convertPaginated(ctx context.Context, ownerID, sourcePath string) (*Result, error) {
    dir, base, err := c.ensureOwnerDir(ownerID, sourcePath)
    if err != nil {
        return nil, err
    }

    // Already-materialized artifacts are the cache: reuse without opening
    // the source at all.
    if paths := existingPages(dir, base); len(paths) > 0 {
        return &Result{ContentType: "image/jpeg", Paths: paths}, nil
    }

    doc, err := c.renderer.Open(sourcePath)
    if err != nil {
        return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(sourcePath), err)
    }
    defer doc.Close()

    pages := doc.NumPages()
    if pages > c.config.MaxPages {
        pages = c.config.MaxPages
    }

    paths := make([]string, 0, pages)
    for i := 1; i <= pages; i++ {
        if err := ctx.Err(); err != nil {
            return nil, err
        }

        target := filepath.Join(dir, fmt.Sprintf("%s.%d.%s", base, i, previewFormat))
        img, err := doc.RenderPage(i - 1)
        if err != nil {
            return nil, err
        }
        if err := imaging.Save(img, target, imaging.JPEGQuality(c.config.Quality)); err != nil {
            return nil, fmt.Errorf("failed to write preview %s: %w", target, err)
        }
        paths = append(paths, target)
    }

    return &Result{ContentType: "image/jpeg", Paths: paths}, nil
}

func (c *Converter) resizeImage(ownerID, sourcePath string) (*Result, error) {
    dir, base, err := c.ensureOwnerDir(ownerID, sourcePath)
    if err != nil {
        return nil, err
    }

    target := filepath.Join(dir, base+"."+previewFormat)
    if _, err := os.Stat(target); err == nil {
        return &Result{ContentType: "image/jpeg", Paths: []string{target}}, nil
    }

    img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
    if err != nil {
        return c.degrade(sourcePath, err), nil
    }

    resized := imaging.Fit(img, c.config.MaxWidth, c.config.MaxHeight, imaging.Lanczos)
    if err := imaging.Save(resized, target, imaging.JPEGQuality(c.config.Quality)); err != nil {
        os.Remove(target)
        return c.degrade(sourcePath, err), nil
    }

    return &Result{ContentType: "image/jpeg", Paths: []string{target}}, nil
}

// degrade serves the unmodified original instead of failing the request.
func (c *Converter) degrade(sourcePath string, cause error) *Result {
    c.logger.Warn("Preview resize failed, serving original",
        logger.String("source", filepath.Base(sourcePath)),
        logger.Error(cause),
    )
    return &Result{ContentType: ContentTypeUnknown, Paths: []string{sourcePath}}
}

// ensureOwnerDir creates the owner's preview directory before anything is
// written. Failure here aborts the conversion with no partial artifact.
func (c *Converter) ensureOwnerDir(ownerID, sourcePath string) (dir, base string, err error) {
    dir = filepath.Join(c.config.Dir, ownerID)
    if err := os.MkdirAll(dir, 0755); err != nil {
        return "", "", fmt.Errorf("failed to create preview directory: %w", err)
    }
    name := filepath.Base(sourcePath)
    base = strings.TrimSuffix(name, filepath.Ext(name))
    return dir, base, nil
}

// existingPages collects <base>.<n>.jpg artifacts in page order.
func existingPages(dir, base string) []string {
    matches, err := filepath.Glob(filepath.Join(dir, base+".*."+previewFormat))
    if err != nil || len(matches) == 0 {
        return nil
    }

    type page struct {
        index int
        path  string
    }
    pages := make([]page, 0, len(matches))
    for _, m := range matches {
        rest := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), base+"."), "."+previewFormat)
        idx, err := strconv.Atoi(rest)
        if err != nil {
            continue
        }
        pages = append(pages, page{index: idx, path: m})
    }
    if len(pages) == 0 {
        return nil
    }

    sort.Slice(pages, func(i, j int) bool { return pages[i].index < pages[j].index })
    paths := make([]string, len(pages))
    for i, p := range pages {
        paths[i] = p.path
    }
    return paths
}
