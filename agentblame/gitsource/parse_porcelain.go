package gitsource

import (
	"strconv"
	"strings"
	"time"
)

// parsePorcelain parses `git blame --porcelain` output into ordered
// per-line records. Commit header fields appear once per commit; later
// lines of the same commit reuse the cached values (filename is the
// exception, it can be repeated per line group).
func parsePorcelain(data string) (res []BlameLine) {
	lines := strings.Split(data, "\n")
	type meta struct {
		author     string
		authorTime time.Time
		summary    string
		filename   string
	}
	metasByCommit := map[string]*meta{}

	i := 0
	for i < len(lines) {
		fl := lines[i]
		if fl == "" {
			i++
			continue
		}
		parts := strings.Split(fl, " ")
		if len(parts) < 3 || !isSHA(parts[0]) {
			i++
			continue
		}
		sha := parts[0]
		origLine, err1 := strconv.Atoi(parts[1])
		finalLine, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			i++
			continue
		}
		i++

		m := metasByCommit[sha]
		if m == nil {
			m = &meta{}
			metasByCommit[sha] = m
		}
		for i < len(lines) && !strings.HasPrefix(lines[i], "\t") {
			hl := lines[i]
			switch {
			case strings.HasPrefix(hl, "author "):
				m.author = hl[len("author "):]
			case strings.HasPrefix(hl, "author-time "):
				if ts, err := strconv.ParseInt(hl[len("author-time "):], 10, 64); err == nil {
					m.authorTime = time.Unix(ts, 0).UTC()
				}
			case strings.HasPrefix(hl, "summary "):
				m.summary = hl[len("summary "):]
			case strings.HasPrefix(hl, "filename "):
				m.filename = hl[len("filename "):]
			}
			i++
		}

		content := ""
		if i < len(lines) && strings.HasPrefix(lines[i], "\t") {
			content = lines[i][1:]
			i++
		}

		res = append(res, BlameLine{
			CommitSHA:  sha,
			OrigLine:   origLine,
			FinalLine:  finalLine,
			Content:    content,
			Author:     m.author,
			AuthorTime: m.authorTime,
			Summary:    m.summary,
			Filename:   m.filename,
		})
	}
	return
}

func isSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
