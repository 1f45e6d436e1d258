package localsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// FileBus пишет сигнал в файл рядом с состоянием и слушает его изменения через fsnotify.
// Наблюдается каталог: атомарная замена файла меняет inode.
type FileBus struct {
	path    string
	watcher *fsnotify.Watcher
	subs    subscribers
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewFileBus начинает наблюдение за path
func NewFileBus(path string) (*FileBus, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create signal dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	b := &FileBus{path: abs, watcher: watcher, done: make(chan struct{})}
	b.wg.Add(1)
	go b.loop()
	return b, nil
}

func (b *FileBus) loop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != b.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			sig, err := readSignal(b.path)
			if err != nil {
				// файл может быть недописан, следующий Write придет
				log.Debug().Err(err).Str("path", b.path).Msg("localsync: сигнал не прочитан")
				continue
			}
			b.subs.dispatch(sig)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("⚠️ localsync: ошибка fsnotify")
		}
	}
}

// Publish атомарно перезаписывает файл сигнала
func (b *FileBus) Publish(ctx context.Context, sig Signal) error {
	return writeSignal(b.path, sig)
}

func (b *FileBus) Subscribe(fn func(Signal)) {
	b.subs.add(fn)
}

func (b *FileBus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.watcher.Close()
		b.wg.Wait()
	})
	return err
}

// PollingBus перечитывает файл сигнала с интервалом: страховка на ФС,
// где события fsnotify теряются (сетевые диски, некоторые контейнеры).
type PollingBus struct {
	path     string
	interval time.Duration
	subs     subscribers
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	once     sync.Once
}

// NewPollingBus запускает опрос; interval <= 0 - 1 секунда
func NewPollingBus(path string, interval time.Duration) *PollingBus {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &PollingBus{path: path, interval: interval, cancel: cancel}
	b.wg.Add(1)
	go b.loop(ctx)
	return b
}

func (b *PollingBus) loop(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	var last Signal
	if sig, err := readSignal(b.path); err == nil {
		last = sig
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sig, err := readSignal(b.path)
			if err != nil {
				continue
			}
			if sig.Origin == last.Origin && sig.Seq == last.Seq {
				continue
			}
			last = sig
			b.subs.dispatch(sig)
		}
	}
}

func (b *PollingBus) Publish(ctx context.Context, sig Signal) error {
	return writeSignal(b.path, sig)
}

func (b *PollingBus) Subscribe(fn func(Signal)) {
	b.subs.add(fn)
}

func (b *PollingBus) Close() error {
	b.once.Do(func() {
		b.cancel()
		b.wg.Wait()
	})
	return nil
}

func readSignal(path string) (Signal, error) {
	var sig Signal
	data, err := os.ReadFile(path)
	if err != nil {
		return sig, err
	}
	if err := json.Unmarshal(data, &sig); err != nil {
		return sig, err
	}
	if sig.Origin == "" {
		return sig, errors.New("signal without origin")
	}
	return sig, nil
}

func writeSignal(path string, sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// writeAtomic пишет во временный файл и переименовывает поверх целевого
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
