package main

import (
	"fmt"
	"log"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
)

const (
	previewWidth  = 640
	previewHeight = 480
	barHeight     = 12
)

// SDL ждёт события и отрисовку из главного потока.
func init() {
	runtime.LockOSThread()
}

type bar struct {
	X, Y, W, H int
	R, G, B    uint8
}

// previewBars раскладывает ненулевые записи по строкам; ширина пропорциональна наибольшему счётчику.
func previewBars(entries []Entry, width, height int) []bar {
	rows := height / barHeight
	var top uint64
	for _, e := range entries {
		if e.Count > top {
			top = e.Count
		}
	}
	if top == 0 || rows == 0 {
		return nil
	}
	bars := make([]bar, 0, rows)
	for _, e := range entries {
		if len(bars) == rows {
			break
		}
		if e.Count == 0 {
			continue
		}
		w := int(e.Count * uint64(width) / top)
		if w < 1 {
			w = 1
		}
		bars = append(bars, bar{Y: len(bars) * barHeight, W: w, H: barHeight - 1, R: e.R, G: e.G, B: e.B})
	}
	return bars
}

func showPreview(entries []Entry) error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("sdl init: %w", err)
	}
	defer sdl.Quit()

	win, err := sdl.CreateWindow("Color histogram", int32(100), int32(100), previewWidth, previewHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return err
	}
	defer win.Destroy()
	rend, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return err
	}
	defer rend.Destroy()

	bars := previewBars(entries, previewWidth, previewHeight)
	for !pollClosed() {
		renderBars(rend, bars)
		sdl.Delay(16) // ~60 FPS
	}
	log.Println("Окно предпросмотра закрыто")
	return nil
}

func renderBars(rend *sdl.Renderer, bars []bar) {
	rend.SetDrawColor(255, 255, 255, 255)
	rend.Clear()
	for _, b := range bars {
		rend.SetDrawColor(b.R, b.G, b.B, 255)
		rend.FillRect(&sdl.Rect{X: int32(b.X), Y: int32(b.Y), W: int32(b.W), H: int32(b.H)})
	}
	rend.Present()
}

// pollClosed разбирает очередь событий SDL; вызывается из того же потока, что и отрисовка.
func pollClosed() bool {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			return true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE {
				return true
			}
		}
	}
	return false
}
