package report

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/drew/jobreport/internal/model"
)

// RawEntry is the first member of every result archive
const RawEntry = "raw.json"

// UserMail is the split report mail of one user
type UserMail struct {
	User     string
	Sections []Section
}

// Archive is one parsed result archive
type Archive struct {
	Period int
	Raw    model.PeriodData
	Mails  []UserMail
}

// ReadArchive parses a gzip-compressed result archive. After raw.json it
// expects, per user, a "<user>.*.header" and a "<user>.*.mail" member; a
// "<user>.empty" member discards the user currently being read.
func ReadArchive(r io.Reader, period int) (*Archive, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	hdr, err := tr.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if hdr.Name != RawEntry {
		return nil, mismatch("find_raw_json")
	}
	a := &Archive{Period: period}
	if err := json.NewDecoder(tr).Decode(&a.Raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", RawEntry, err)
	}

	var (
		cur          string
		header, body []byte
	)
	flush := func() error {
		if cur == "" {
			return nil
		}
		sections, err := SplitSections(string(header), string(body), period, cur)
		if err != nil {
			return fmt.Errorf("user %s: %w", cur, err)
		}
		a.Mails = append(a.Mails, UserMail{User: cur, Sections: sections})
		return nil
	}

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archive: %w", err)
		}

		user, ext, ok := splitMemberName(hdr.Name)
		if !ok {
			return nil, mismatch("find_filename_ext")
		}
		switch ext {
		case "header":
			if user != cur {
				if err := flush(); err != nil {
					return nil, err
				}
				cur = user
			}
			if header, err = io.ReadAll(tr); err != nil {
				return nil, err
			}
		case "mail":
			if body, err = io.ReadAll(tr); err != nil {
				return nil, err
			}
		case "empty":
			cur = ""
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return a, nil
}

// splitMemberName splits "alice.2024.header" into "alice" and "header"
func splitMemberName(name string) (user, ext string, ok bool) {
	first := strings.IndexByte(name, '.')
	if first == -1 || first == len(name)-1 {
		return "", "", false
	}
	last := strings.LastIndexByte(name, '.')
	if last == len(name)-1 {
		last = strings.LastIndexByte(name[:last], '.')
	}
	return name[:first], strings.TrimSuffix(name[last+1:], "."), true
}
