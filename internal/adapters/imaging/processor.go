package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/phenrril/storefront/internal/domain"
)

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Processor valida las imágenes subidas y las achica a MaxWidth.
// Los GIF se guardan tal cual para no perder la animación; un WebP que
// hay que achicar se re-codifica como JPEG.
type Processor struct {
	MaxWidth int
	Quality  int
}

func New(maxWidth int) *Processor {
	return &Processor{MaxWidth: maxWidth, Quality: 85}
}

func (p *Processor) Process(data []byte) (*domain.ProcessedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Invalid("imagen inválida o formato no soportado")
	}
	ct, ok := contentTypes[format]
	if !ok {
		return nil, domain.Invalid("formato %s no soportado", format)
	}
	out := &domain.ProcessedImage{Data: data, Format: ext(format), ContentType: ct, Width: cfg.Width, Height: cfg.Height}
	if format == "gif" || p.MaxWidth <= 0 || cfg.Width <= p.MaxWidth {
		return out, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Invalid("imagen inválida: %v", err)
	}
	w := p.MaxWidth
	h := cfg.Height * w / cfg.Width
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	default:
		format = "jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality()})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return &domain.ProcessedImage{Data: buf.Bytes(), Format: ext(format), ContentType: contentTypes[format], Width: w, Height: h}, nil
}

func (p *Processor) quality() int {
	if p.Quality <= 0 || p.Quality > 100 {
		return 85
	}
	return p.Quality
}

func ext(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
