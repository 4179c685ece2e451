package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const reportHeader = `<!DOCTYPE html>
<html>
<head>
    <meta http-equiv="X-UA-Compatible" content="IE=edge">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <meta http-equiv="Content-Type" content="text/html; charset=utf-8" />
    <title>color histogram</title>
</head>
<body>
`

const reportFooter = `
</body>
</html>
`

const reportRow = `<div style="margin:2px">
    <div style="padding-left: 200px; background-color:rgb(%d,%d,%d); display:inline"></div>
    <span style="margin:10px; width:400px; height:50px;">pixels: %s; color: (%d, %d, %d); </span>
</div>
`

// Human форматирует число по степеням 1000; порог срабатывает только при строгом превышении.
func Human(n uint64, suffix string) string {
	const k = 1000
	switch {
	case n > k*k*k:
		return fmt.Sprintf("%.2fG%s", float64(n)/(k*k*k), suffix)
	case n > k*k:
		return fmt.Sprintf("%.2fM%s", float64(n)/(k*k), suffix)
	case n > k:
		return fmt.Sprintf("%.2fK%s", float64(n)/k, suffix)
	default:
		return fmt.Sprintf("%d%s", n, suffix)
	}
}

// WriteReport выводит записи ровно в переданном порядке.
func WriteReport(w io.Writer, total uint64, entries []Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := io.WriteString(bw, reportHeader); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "<div style='margin:20px'>total: %s pixels</div>\n", Human(total, "")); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, reportRow, e.R, e.G, e.B, Human(e.Count, ""), e.R, e.G, e.B); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(bw, reportFooter); err != nil {
		return err
	}
	return bw.Flush()
}

// SaveReport пишет во временный файл рядом с filename и переименовывает его только при успехе.
func SaveReport(filename string, total uint64, entries []Entry) (err error) {
	f, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = WriteReport(f, total, entries); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Chmod(0o644); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filename)
}
