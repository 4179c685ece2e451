package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/browser"
)

const version = "colorhist 1.0.0"

var ErrLimit = errors.New("limit must not be negative")

const detailedHelp = `Использование: colorhist [опции] <каталог | gs://bucket/prefix>

Строит общую цветовую гистограмму по всем изображениям в дереве каталогов
и сохраняет её в HTML-отчёт, отсортированный по частоте.

Алгоритм:
  1. Каждый канал RGB делится нацело на коэффициент F (по умолчанию 8),
     так что пространство цветов разбивается на (256/F)^3 ячеек.
  2. Для каждого пикселя каждого изображения увеличивается счётчик его ячейки
     и общий счётчик пикселей. Порядок обхода файлов на результат не влияет.
  3. Все ячейки, включая пустые, сортируются по убыванию счётчика;
     при равенстве - по возрастанию индекса ячейки (R, затем G, затем B).
  4. Каждая ячейка выводится строкой с образцом цвета (нижний угол ячейки)
     и числом пикселей в формате K/M/G.

Файлы, которые не удалось декодировать, пропускаются.

Опции:
  -o, --output     Имя HTML-отчёта (по умолчанию colorhistogram.html)
  -r, --reduction  Коэффициент F, делитель 256 (по умолчанию 8)
  -e, --ext        Суффикс имени файла, можно повторять (по умолчанию .jpeg)
  -l, --limit      Выводить только первые N ячеек (0 - все)
  -n, --no-open    Не открывать отчёт в браузере
  -s, --show       Показать окно предпросмотра гистограммы
  -q, --quiet      Не печатать прогресс и пропущенные файлы
  -v, --version    Показать версию и выйти
  -h, --help       Показать эту справку
`

type Options struct {
	Output    string   `short:"o" long:"output" default:"colorhistogram.html" description:"Имя HTML-отчёта"`
	Reduction int      `short:"r" long:"reduction" default:"8" description:"Коэффициент квантования, делитель 256"`
	Ext       []string `short:"e" long:"ext" default:".jpeg" description:"Суффикс имени файла изображения"`
	Limit     int      `short:"l" long:"limit" default:"0" description:"Выводить только первые N ячеек"`
	NoOpen    bool     `short:"n" long:"no-open" description:"Не открывать отчёт в браузере"`
	Show      bool     `short:"s" long:"show" description:"Показать окно предпросмотра"`
	Quiet     bool     `short:"q" long:"quiet" description:"Не печатать прогресс и пропуски"`
	Version   bool     `short:"v" long:"version" description:"Показать версию и выйти"`
	Help      bool     `short:"h" long:"help" description:"Показать справку с описанием алгоритма"`
}

func main() {
	var opts Options

	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	args, err := parser.Parse()
	if opts.Help {
		fmt.Print(detailedHelp)
		return
	}
	if opts.Version {
		fmt.Println(version)
		return
	}
	if err != nil || len(args) == 0 {
		fmt.Print(detailedHelp)
		os.Exit(1)
	}

	q, err := NewQuantizer(opts.Reduction)
	if err != nil {
		log.Fatalf("Неверный коэффициент: %v", err)
	}
	if err := checkLimit(opts.Limit); err != nil {
		log.Fatalf("Неверный лимит: %v", err)
	}

	ctx := context.Background()
	src, err := OpenSource(ctx, args[0], opts.Ext)
	if err != nil {
		log.Fatalf("Ошибка открытия корня: %v", err)
	}

	files, err := src.List(ctx)
	if err != nil {
		src.Close()
		log.Fatalf("Ошибка обхода каталога: %v", err)
	}

	histogram := NewHistogram(q)
	skipped := accumulate(ctx, src, files, histogram, opts.Quiet)
	if err := src.Close(); err != nil {
		log.Printf("Ошибка закрытия источника: %v", err)
	}
	log.Printf("Обработано файлов: %d, пропущено: %d, пикселей: %s", len(files)-skipped, skipped, Human(histogram.Total(), ""))

	entries := topEntries(histogram.Rank(), opts.Limit)
	if err := SaveReport(opts.Output, histogram.Total(), entries); err != nil {
		log.Fatalf("Ошибка записи отчёта: %v", err)
	}
	log.Println("Отчёт успешно записан:", filepath.Join(".", opts.Output))

	if !opts.NoOpen {
		if err := browser.OpenFile(opts.Output); err != nil {
			log.Printf("Не удалось открыть отчёт: %v", err)
		}
	}

	if opts.Show {
		if err := showPreview(entries); err != nil {
			log.Fatalf("Ошибка предпросмотра: %v", err)
		}
	}
}

func checkLimit(limit int) error {
	if limit < 0 {
		return fmt.Errorf("%w: %d", ErrLimit, limit)
	}
	return nil
}

// topEntries оставляет первые limit записей; 0 означает все.
func topEntries(entries []Entry, limit int) []Entry {
	if limit > 0 && limit < len(entries) {
		return entries[:limit]
	}
	return entries
}

// accumulate добавляет в гистограмму все декодируемые файлы; ошибки открытия и декодирования не фатальны.
func accumulate(ctx context.Context, src Source, files []string, h *Histogram, quiet bool) (skipped int) {
	for i, name := range files {
		if !quiet {
			log.Printf("%d/%d: %s", i, len(files), name)
		}
		rc, err := src.Open(ctx, name)
		if err != nil {
			skipped++
			if !quiet {
				log.Printf("Пропуск %s: %v", name, err)
			}
			continue
		}
		img, _, err := LoadImage(rc)
		rc.Close()
		if err != nil {
			skipped++
			if !quiet {
				log.Printf("Пропуск %s: %v", name, err)
			}
			continue
		}
		h.AddImage(img)
	}
	return skipped
}
