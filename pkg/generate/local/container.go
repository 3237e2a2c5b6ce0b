package local

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

// ICOSizes are the square images embedded in a generated .ico file.
var ICOSizes = []int{16, 24, 32, 48, 64, 128, 256}

// icnsTypes maps edge lengths to the PNG-capable ICNS entry types.
var icnsTypes = []struct {
	size int
	kind string
}{
	{16, "icp4"},
	{32, "icp5"},
	{64, "icp6"},
	{128, "ic07"},
	{256, "ic08"},
	{512, "ic09"},
	{1024, "ic10"},
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeICO writes src as a Windows icon with PNG-compressed entries.
func writeICO(w io.Writer, src image.Image, sizes []int) error {
	images := make([][]byte, len(sizes))
	for i, size := range sizes {
		data, err := encodePNG(imaging.Resize(src, size, size, imaging.Lanczos))
		if err != nil {
			return fmt.Errorf("encode %dx%d: %w", size, size, err)
		}
		images[i] = data
	}

	var buf bytes.Buffer
	// ICONDIR: reserved, type (1 = icon), count.
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, uint16(len(sizes))})

	offset := 6 + 16*len(sizes)
	for i, size := range sizes {
		dim := uint8(size)
		if size >= 256 {
			dim = 0
		}
		// ICONDIRENTRY: width, height, colors, reserved, planes, bpp, size, offset.
		buf.Write([]byte{dim, dim, 0, 0})
		binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
		binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(images[i])), uint32(offset)})
		offset += len(images[i])
	}
	for _, data := range images {
		buf.Write(data)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// writeICNS writes src as a macOS icon family with PNG entries.
func writeICNS(w io.Writer, src image.Image) error {
	var body bytes.Buffer
	for _, t := range icnsTypes {
		data, err := encodePNG(imaging.Resize(src, t.size, t.size, imaging.Lanczos))
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.kind, err)
		}
		body.WriteString(t.kind)
		binary.Write(&body, binary.BigEndian, uint32(8+len(data)))
		body.Write(data)
	}

	var head bytes.Buffer
	head.WriteString("icns")
	binary.Write(&head, binary.BigEndian, uint32(8+body.Len()))

	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}
	_, err := body.WriteTo(w)
	return err
}
