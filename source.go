package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

const gcsScheme = "gs://"

var ErrNotDirectory = errors.New("root is not a directory")

// Source перечисляет файлы изображений и открывает их по имени.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Close() error
}

func matchExt(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// OpenSource выбирает источник по корню: gs://bucket/prefix или локальный каталог.
func OpenSource(ctx context.Context, root string, exts []string) (Source, error) {
	if strings.HasPrefix(root, gcsScheme) {
		bucket, prefix := gcsparse(strings.TrimPrefix(root, gcsScheme))
		if bucket == "" {
			return nil, fmt.Errorf("empty bucket in %q", root)
		}
		cl, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage.newclient: %w", err)
		}
		return &gcsSource{client: cl, bucket: bucket, prefix: prefix, exts: exts}, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return &dirSource{root: abs, exts: exts}, nil
}

type dirSource struct {
	root string
	exts []string
}

func (d *dirSource) List(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() && matchExt(e.Name(), d.exts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (d *dirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func (d *dirSource) Close() error { return nil }

type gcsSource struct {
	client *storage.Client
	bucket string
	prefix string
	exts   []string
}

func gcsparse(gsUri string) (bucket, object string) {
	gsUri = strings.TrimPrefix(gsUri, "/")
	firstSlash := strings.Index(gsUri, "/")
	if firstSlash == -1 {
		return gsUri, ""
	}
	return gsUri[:firstSlash], gsUri[firstSlash+1:]
}

func (g *gcsSource) List(ctx context.Context) ([]string, error) {
	var files []string
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", g.bucket, g.prefix, err)
		}
		if matchExt(attrs.Name, g.exts) {
			files = append(files, attrs.Name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (g *gcsSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
}

func (g *gcsSource) Close() error {
	return g.client.Close()
}
