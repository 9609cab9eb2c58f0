package knowledge

import (
	"path/filepath"

	"post-assist-bot/internal/logger"

	"gopkg.in/fsnotify.v1"
)

// Watch reloads the base whenever its file is written or replaced. The
// directory is watched so editors that save through a rename are caught.
// Close the returned watcher to stop.
func Watch(b *Base) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	target, err := filepath.Abs(b.Path())
	if err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, _ := filepath.Abs(event.Name)
				if name != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("Knowledge base event:", event.String())
				if err := b.Reload(); err != nil {
					logger.Warning("Knowledge base not reloaded, keeping previous entries:", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warning("Knowledge base watcher:", err)
			}
		}
	}()

	return watcher, nil
}
