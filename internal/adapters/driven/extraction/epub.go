package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/custodia-labs/corpus-cli/internal/core/domain"
)

// container.xml points at the OPF package document.
type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// The OPF package: a manifest of files and a spine giving reading
// order.
type epubPackage struct {
	Manifest []struct {
		ID   string `xml:"id,attr"`
		Href string `xml:"href,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// parseEPUB walks the spine in reading order and concatenates the
// chapters. Each spine document becomes a ChapterSpan, titled from its
// first heading or <title>, so the segmenter gets native chapter
// boundaries instead of guessing from the text.
func parseEPUB(data []byte) (*domain.ExtractedDocument, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}

	opfPath, err := findOPFPath(archive)
	if err != nil {
		return nil, err
	}
	pkg, err := readOPF(archive, opfPath)
	if err != nil {
		return nil, err
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}
	opfDir := path.Dir(opfPath)

	var buf strings.Builder
	var chapters []domain.ChapterSpan

	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		chapterPath := href
		if opfDir != "." {
			chapterPath = path.Join(opfDir, href)
		}
		content, err := readZipFile(archive, chapterPath)
		if err != nil {
			continue
		}
		text, title, err := htmlToText(content)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		start := buf.Len()
		buf.WriteString(text)
		chapters = append(chapters, domain.ChapterSpan{
			Title: chapterTitle(title, text),
			Start: start,
			End:   buf.Len(),
		})
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("no readable chapters")
	}
	return &domain.ExtractedDocument{
		Text:        buf.String(),
		PageOffsets: []int{0},
		PageCount:   1,
		Chapters:    chapters,
	}, nil
}

func findOPFPath(archive *zip.Reader) (string, error) {
	content, err := readZipFile(archive, "META-INF/container.xml")
	if err != nil {
		return "", fmt.Errorf("read container.xml: %w", err)
	}
	var container epubContainer
	if err := xml.Unmarshal(content, &container); err != nil {
		return "", fmt.Errorf("parse container.xml: %w", err)
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return "", fmt.Errorf("container.xml names no rootfile")
	}
	return container.Rootfiles[0].FullPath, nil
}

func readOPF(archive *zip.Reader, opfPath string) (*epubPackage, error) {
	content, err := readZipFile(archive, opfPath)
	if err != nil {
		return nil, fmt.Errorf("read package document: %w", err)
	}
	var pkg epubPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parse package document: %w", err)
	}
	return &pkg, nil
}

func readZipFile(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not in archive", name)
}

// chapterTitle prefers the document title, falling back to the first
// line of the chapter text when it is heading-sized.
func chapterTitle(title, text string) string {
	if title != "" {
		return title
	}
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if len(line) > 0 && len(line) <= 80 {
		return line
	}
	return ""
}
