package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"crosspost/internal/cache"
	"crosspost/internal/card"
	"crosspost/internal/domain/config"
	"crosspost/internal/format"
	"crosspost/internal/ingest"
	"crosspost/internal/render"
)

// Server is the preview surface: it ingests markdown sources, fans each
// post out to the platform formatters on demand and serves the payloads
// over HTTP. Formatted payloads are cached by content hash; the source
// tree is watched and re-ingested on change.
type Server struct {
	cfg config.Config

	store    *cache.Store
	fm       *format.Formatter
	exporter *card.Exporter

	mu    sync.RWMutex
	posts map[string]ingest.PostFile

	sseMu    sync.Mutex
	sseConns map[chan string]struct{}

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

func New(cfg config.Config) (*Server, error) {
	st, err := cache.Open(cache.OpenOptions{Path: cfg.Serve.CachePath})
	if err != nil {
		return nil, fmt.Errorf("serve: failed to open cache: %w", err)
	}
	return &Server{
		cfg:      cfg,
		store:    st,
		fm:       format.New(render.NewMarkdownRenderer()),
		exporter: card.NewExporter(card.ImageRasterizer{}),
		posts:    make(map[string]ingest.PostFile),
		sseConns: make(map[chan string]struct{}),
	}, nil
}

func (s *Server) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.rebuild(); err != nil {
		return err
	}
	if err := s.startWatch(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/post/", s.handlePost)
	mux.HandleFunc("/outline/", s.handleOutline)
	mux.HandleFunc("/dev/events", s.handleSSE)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	log.Printf("[serve] listening on %s", addr)
	return srv.ListenAndServe()
}

func (s *Server) rebuild() error {
	sourceDir := s.cfg.Serve.SourceDir
	log.Printf("[serve] ingest from %s ...", sourceDir)
	files, warns, err := ingest.Ingest(sourceDir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	for _, w := range warns {
		log.Printf("[warn] %s: %s", w.Path, w.Msg)
	}
	log.Printf("[serve] ingested %d posts", len(files))

	if err := s.store.DropAll(); err != nil {
		return fmt.Errorf("cache reset: %w", err)
	}

	m := make(map[string]ingest.PostFile, len(files))
	for _, f := range files {
		m[f.Slug] = f
	}
	s.mu.Lock()
	s.posts = m
	s.mu.Unlock()

	log.Printf("[serve] rebuild complete")
	s.broadcastSSE("reload")
	return nil
}

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		s.watcher = w

		go s.watchLoop(ctx)

		err = filepath.Walk(s.cfg.Serve.SourceDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return w.Add(path)
			}
			return nil
		})
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	log.Printf("[serve] watching for file changes ...")
	debounce := time.NewTicker(time.Hour)
	debounce.Stop()

	trigger := func() {
		select {
		case <-debounce.C:
		default:
		}
		debounce.Reset(200 * time.Millisecond)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				trigger()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[warn] watcher error: %v", err)
		case <-debounce.C:
			if err := s.rebuild(); err != nil {
				log.Printf("[serve] rebuild error: %v", err)
			}
		}
	}
}

func (s *Server) lookup(slug string) (ingest.PostFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.posts[slug]
	return f, ok
}

// GET / — post index as JSON.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	type item struct {
		Slug  string    `json:"slug"`
		Title string    `json:"title"`
		Tags  []string  `json:"tags"`
		Date  time.Time `json:"date"`
		Draft bool      `json:"draft,omitempty"`
	}

	s.mu.RLock()
	items := make([]item, 0, len(s.posts))
	for _, f := range s.posts {
		items = append(items, item{
			Slug:  f.Slug,
			Title: f.Post.Title,
			Tags:  f.Post.Tags,
			Date:  f.Date,
			Draft: f.Draft,
		})
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })
	writeJSON(w, http.StatusOK, map[string]any{
		"site":  s.cfg.Site,
		"posts": items,
	})
}

// GET /post/{slug}            — blog view (HTML page).
// GET /post/{slug}/{platform} — platform payload (JSON).
// GET /post/{slug}/card.png   — rasterized share card.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/post/"), "/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}
	slug, target, _ := strings.Cut(rest, "/")

	f, ok := s.lookup(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch target {
	case "":
		s.serveBlog(w, f)
	case "card.png":
		s.serveCardImage(w, r, f)
	default:
		s.servePlatform(w, r, f, format.Platform(target))
	}
}

func (s *Server) serveBlog(w http.ResponseWriter, f ingest.PostFile) {
	payload, err := s.store.GetOrCompute("blog.html", f.Slug, f.ContentHash, func() ([]byte, error) {
		out, err := s.fm.ForPlatform(format.PlatformBlog, f.Post, format.Options{})
		if err != nil {
			return nil, err
		}
		return []byte(out.HTML), nil
	})
	if err != nil {
		log.Printf("render blog error: %v", err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body><article>",
		template.HTMLEscapeString(f.Post.Title))
	fmt.Fprintf(w, "<h1>%s</h1>", template.HTMLEscapeString(f.Post.Title))
	if len(f.Post.Tags) > 0 {
		fmt.Fprint(w, "<p>")
		for _, t := range f.Post.Tags {
			fmt.Fprintf(w, "<span>#%s</span> ", template.HTMLEscapeString(t))
		}
		fmt.Fprint(w, "</p>")
	}
	w.Write(payload)
	fmt.Fprint(w, "</article></body></html>")
}

func (s *Server) servePlatform(w http.ResponseWriter, r *http.Request, f ingest.PostFile, p format.Platform) {
	opt, err := s.requestOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 影响输出的参数要进缓存键，不然会串
	cacheKey := string(p)
	switch p {
	case format.PlatformX:
		cacheKey += fmt.Sprintf("?thread=%t&number=%t", opt.Thread.ThreadMode, opt.Thread.AddNumbering)
	case format.PlatformXiaohongshu:
		cacheKey += "?preset=" + opt.Card.Name
	}

	payload, err := s.store.GetOrCompute(cacheKey, f.Slug, f.ContentHash, func() ([]byte, error) {
		out, err := s.fm.ForPlatform(p, f.Post, opt)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
	if errors.Is(err, format.ErrUnknownPlatform) {
		http.Error(w, "unknown platform", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("format %s error: %v", p, err)
		http.Error(w, "format error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(payload)
}

func (s *Server) serveCardImage(w http.ResponseWriter, r *http.Request, f ingest.PostFile) {
	opt, err := s.requestOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scale := card.DefaultScale
	if v := r.URL.Query().Get("scale"); v != "" {
		sc, err := strconv.ParseFloat(v, 64)
		if err != nil || sc <= 0 || sc > 4 {
			http.Error(w, "bad scale", http.StatusBadRequest)
			return
		}
		scale = sc
	}

	c := format.ToCard(f.Post.Title, f.Post.Content, opt.Card)
	layout := card.Layout{
		Body:       format.Normalize(c.Body),
		Background: c.Style.Background,
		TextColor:  c.Style.TextColor,
		FontSize:   c.Style.FontSize,
		Padding:    c.Style.Padding,
		Watermark:  c.Style.Watermark,
	}
	if c.Style.ShowTitle {
		layout.Title = c.Title
	}

	img, err := s.exporter.Export(f.Slug, layout, scale)
	if errors.Is(err, card.ErrExportInFlight) {
		http.Error(w, "export already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		// 导出失败必须显式报告，而不是静默吞掉
		log.Printf("card export error: %v", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(img)
}

// GET /outline/{slug} — heading list for table-of-contents UIs.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/outline/"), "/")
	f, ok := s.lookup(slug)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"slug":     f.Slug,
		"headings": format.ExtractHeadings(f.Post.Content),
	})
}

// requestOptions maps query parameters and the configured card preset to
// formatter options.
func (s *Server) requestOptions(r *http.Request) (format.Options, error) {
	var opt format.Options

	q := r.URL.Query()
	opt.Thread.ThreadMode = q.Get("thread") != "false"
	opt.Thread.AddNumbering = q.Get("number") != "false"

	name := q.Get("preset")
	if name == "" {
		name = s.cfg.Cards.Preset
	}
	p, ok := s.cfg.Cards.Find(name)
	if !ok {
		return opt, fmt.Errorf("unknown card preset %q", name)
	}
	opt.Card = format.CardStyle{
		Name:       p.Name,
		Background: p.Background,
		TextColor:  p.TextColor,
		FontSize:   p.FontSize,
		Padding:    p.Padding,
		ShowTitle:  p.ShowTitle,
		ShowDate:   p.ShowDate,
		Watermark:  p.Watermark,
	}
	return opt, nil
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan string, 8)

	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseConns, ch)
		close(ch)
		s.sseMu.Unlock()
	}()
	fmt.Fprintf(w, "data: %s\n\n", "hello")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcastSSE(msg string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()
	for ch := range s.sseConns {
		select {
		case ch <- msg:
		default:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[warn] write json: %v", err)
	}
}
