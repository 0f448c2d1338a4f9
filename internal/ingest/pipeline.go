package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"crosspost/internal/domain/content"
)

// PostFile is one ingested source document: the Post value handed to the
// formatters plus bookkeeping the serve layer needs.
type PostFile struct {
	Slug        string
	Post        content.Post
	Date        time.Time
	Draft       bool
	SourcePath  string
	ContentHash string
}

type Warning struct {
	Path string
	Msg  string
}

type result struct {
	File  PostFile
	Warns []Warning
	Skip  bool
	Err   error
}

func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Ingest walks sourceDir and parses every markdown file into a PostFile.
// Parsing fans out over GOMAXPROCS workers; per-file problems come back as
// warnings, only I/O failures abort the run.
func Ingest(sourceDir string) ([]PostFile, []Warning, error) {
	files, err := DiscoverSource(sourceDir)
	if err != nil {
		return nil, nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	jobs := make(chan SourceFile)
	results := make(chan result)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range jobs {
				st, statErr := os.Stat(sf.Path)
				if statErr != nil {
					results <- result{Err: statErr}
					continue
				}
				raw, readErr := os.ReadFile(sf.Path)
				if readErr != nil {
					results <- result{Err: readErr}
					continue
				}

				fm, body, fmErr := ParseFrontMatter(raw)

				var warns []Warning
				if fmErr != nil && fmErr != errNoFrontMatter {
					warns = append(warns, Warning{
						Path: sf.Path,
						Msg:  "failed to parse front matter: " + fmErr.Error(),
					})
					results <- result{Warns: warns, Skip: true}
					continue
				}
				if fmErr == errNoFrontMatter {
					body = raw
				}
				if fm.Hidden {
					results <- result{Skip: true}
					continue
				}
				slug := ResolveSlug(fm, sf.Path)
				if slug == "" {
					warns = append(warns, Warning{Path: sf.Path, Msg: "empty slug"})
					results <- result{Warns: warns, Skip: true}
					continue
				}
				if strings.TrimSpace(fm.Title) == "" {
					warns = append(warns, Warning{Path: sf.Path, Msg: "title is empty"})
				}

				date := ParseTime(fm.Date)
				if date.IsZero() {
					date = st.ModTime().In(time.Local)
					warns = append(warns, Warning{
						Path: sf.Path,
						Msg:  "using file modification time for date",
					})
				}

				post := content.Post{
					Title:   fm.Title,
					Content: string(body),
					Tags:    fm.Tags,
				}
				post.Normalize()

				results <- result{
					File: PostFile{
						Slug:        slug,
						Post:        post,
						Date:        date,
						Draft:       fm.Draft,
						SourcePath:  sf.Path,
						ContentHash: HashBytes(raw),
					},
					Warns: warns,
				}
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var out []PostFile
	var warns []Warning
	for r := range results {
		if r.Err != nil {
			return nil, nil, r.Err
		}
		if len(r.Warns) > 0 {
			warns = append(warns, r.Warns...)
		}
		if r.Skip {
			continue
		}
		out = append(out, r.File)
	}

	// slug 冲突：保留先到的
	seen := make(map[string]struct{}, len(out))
	filtered := make([]PostFile, 0, len(out))
	for _, f := range out {
		if _, ok := seen[f.Slug]; ok {
			warns = append(warns, Warning{Path: f.SourcePath, Msg: "duplicate slug, skipped: " + f.Slug})
			continue
		}
		seen[f.Slug] = struct{}{}
		filtered = append(filtered, f)
	}
	return filtered, warns, nil
}
