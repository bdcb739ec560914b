package preview

import (
    "context"
    "fmt"
    "image"
    "image/color"
    "os"
    "path/filepath"
    "testing"

    "github.com/disintegration/imaging"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/zihao-lin/expenseflow/pkg/logger"
)

// fakeRenderer stands in for the MuPDF binding and counts invocations so
// tests can assert convert-once behavior.
type fakeRenderer struct {
    pages       int
    openErr     error
    openCalls   int
    renderCalls int
}

func (r *fakeRenderer) Open(path string) (Document, error) {
    r.openCalls++
    if r.openErr != nil {
        return nil, r.openErr
    }
    return &fakeDocument{renderer: r}, nil
}

type fakeDocument struct {
    renderer *fakeRenderer
}

func (d *fakeDocument) NumPages() int { return d.renderer.pages }

func (d *fakeDocument) RenderPage(index int) (image.Image, error) {
    d.renderer.renderCalls++
    img := image.NewRGBA(image.Rect(0, 0, 40, 60))
    for y := 0; y < 60; y++ {
        for x := 0; x < 40; x++ {
            img.Set(x, y, color.White)
        }
    }
    return img, nil
}

func (d *fakeDocument) Close() error { return nil }

func newTestConverter(t *testing.T, renderer Renderer) *Converter {
    t.Helper()
    return NewConverter(&Config{
        Dir:       t.TempDir(),
        MaxPages:  10,
        MaxWidth:  200,
        MaxHeight: 200,
        Quality:   80,
    }, renderer, logger.NewTestLogger())
}

func writeSourcePDF(t *testing.T) string {
    t.Helper()
    path := filepath.Join(t.TempDir(), "receipt.pdf")
    require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0644))
    return path
}

func TestConvertPaginatedNamesArtifactsByPage(t *testing.T) {
    renderer := &fakeRenderer{pages: 3}
    c := newTestConverter(t, renderer)

    res, err := c.Produce(context.Background(), "owner-1", writeSourcePDF(t), "application/pdf")
    require.NoError(t, err)

    assert.Equal(t, "image/jpeg", res.ContentType)
    require.Len(t, res.Paths, 3)
    for i, p := range res.Paths {
        assert.Equal(t, fmt.Sprintf("receipt.%d.jpg", i+1), filepath.Base(p))
        _, err := os.Stat(p)
        assert.NoError(t, err)
    }
}

func TestConvertPaginatedIsConvertOnce(t *testing.T) {
    renderer := &fakeRenderer{pages: 2}
    c := newTestConverter(t, renderer)
    src := writeSourcePDF(t)

    first, err := c.Produce(context.Background(), "owner-1", src, "application/pdf")
    require.NoError(t, err)

    second, err := c.Produce(context.Background(), "owner-1", src, "application/pdf")
    require.NoError(t, err)

    assert.Equal(t, first.Paths, second.Paths)
    assert.Equal(t, 1, renderer.openCalls, "second conversion must come from disk")
    assert.Equal(t, 2, renderer.renderCalls)
}

func TestConvertPaginatedCapsPageCount(t *testing.T) {
    renderer := &fakeRenderer{pages: 25}
    c := newTestConverter(t, renderer)

    res, err := c.Produce(context.Background(), "owner-1", writeSourcePDF(t), "application/pdf")
    require.NoError(t, err)
    assert.Len(t, res.Paths, 10)
}

func TestConvertPaginatedOpenFailurePropagates(t *testing.T) {
    renderer := &fakeRenderer{openErr: fmt.Errorf("corrupt xref table")}
    c := newTestConverter(t, renderer)

    _, err := c.Produce(context.Background(), "owner-1", writeSourcePDF(t), "application/pdf")
    assert.Error(t, err)
}

func TestPagePathBounds(t *testing.T) {
    c := newTestConverter(t, &fakeRenderer{})
    res := &Result{Paths: []string{"a.1.jpg", "a.2.jpg"}}

    p, err := c.PagePath(res, 2)
    require.NoError(t, err)
    assert.Equal(t, "a.2.jpg", p)

    _, err = c.PagePath(res, 3)
    assert.ErrorIs(t, err, ErrPageNotFound)
    _, err = c.PagePath(res, 0)
    assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestResizeImageBoundsDimensions(t *testing.T) {
    c := newTestConverter(t, &fakeRenderer{})

    src := filepath.Join(t.TempDir(), "photo.png")
    big := imaging.New(800, 400, color.White)
    require.NoError(t, imaging.Save(big, src))

    res, err := c.Produce(context.Background(), "owner-1", src, "image/png")
    require.NoError(t, err)
    require.Len(t, res.Paths, 1)
    assert.Equal(t, "photo.jpg", filepath.Base(res.Paths[0]))

    resized, err := imaging.Open(res.Paths[0])
    require.NoError(t, err)
    bounds := resized.Bounds()
    assert.Equal(t, 200, bounds.Dx(), "aspect ratio must be preserved within bounds")
    assert.Equal(t, 100, bounds.Dy())
}

func TestResizeImageReusesArtifact(t *testing.T) {
    c := newTestConverter(t, &fakeRenderer{})

    src := filepath.Join(t.TempDir(), "photo.png")
    require.NoError(t, imaging.Save(imaging.New(300, 300, color.White), src))

    first, err := c.Produce(context.Background(), "owner-1", src, "image/png")
    require.NoError(t, err)
    stat1, err := os.Stat(first.Paths[0])
    require.NoError(t, err)

    second, err := c.Produce(context.Background(), "owner-1", src, "image/png")
    require.NoError(t, err)
    stat2, err := os.Stat(second.Paths[0])
    require.NoError(t, err)

    assert.Equal(t, first.Paths, second.Paths)
    assert.Equal(t, stat1.ModTime(), stat2.ModTime(), "artifact must not be rewritten")
}

func TestResizeFailureDegradesToOriginal(t *testing.T) {
    c := newTestConverter(t, &fakeRenderer{})

    src := filepath.Join(t.TempDir(), "broken.jpg")
    require.NoError(t, os.WriteFile(src, []byte("not an image"), 0644))

    res, err := c.Produce(context.Background(), "owner-1", src, "image/jpeg")
    require.NoError(t, err, "resize failure must not fail the request")
    assert.Equal(t, ContentTypeUnknown, res.ContentType)
    assert.Equal(t, []string{src}, res.Paths)
}

func TestPassThroughForOtherTypes(t *testing.T) {
    c := newTestConverter(t, &fakeRenderer{})

    res, err := c.Produce(context.Background(), "owner-1", "/tmp/notes.txt", "text/plain")
    require.NoError(t, err)
    assert.Equal(t, "text/plain", res.ContentType)
    assert.Equal(t, []string{"/tmp/notes.txt"}, res.Paths)
}
