package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one line of an input list: a path or URL and an optional table
// name that overrides the one derived from Ref.
type Entry struct {
	Ref  string
	Name string
}

// ReadList reads an input list file. See ParseList for the format.
func ReadList(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ParseList reads one entry per line: "ref" or "ref name", separated by
// whitespace. Blank lines and lines starting with '#' are skipped. Order is
// preserved.
func ParseList(r io.Reader) ([]Entry, error) {
	var out []Entry
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			out = append(out, Entry{Ref: fields[0]})
		case 2:
			out = append(out, Entry{Ref: fields[0], Name: fields[1]})
		default:
			return nil, fmt.Errorf("line %d: want \"ref [name]\", got %d fields", n, len(fields))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
