package hotels

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// dump keeps a copy of a raw upstream response when DumpDir is set.
func (c *Client) dump(label, method string, body []byte) {
	if c.opts.DumpDir == "" {
		return
	}
	name := fmt.Sprintf("%s_%s_%s.json", sanitize(label), method, time.Now().UTC().Format("20060102T150405.000"))
	if err := os.MkdirAll(c.opts.DumpDir, 0o755); err != nil {
		c.logger.Warnw("Failed to create dump dir", "dir", c.opts.DumpDir, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.opts.DumpDir, name), body, 0o644); err != nil {
		c.logger.Warnw("Failed to dump response", "file", name, "error", err)
	}
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}
