package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/agent42-ai/agent42/pkg/agents"
	"github.com/agent42-ai/agent42/pkg/logger"
	"github.com/agent42-ai/agent42/pkg/presenter"
	"github.com/agent42-ai/agent42/pkg/skills"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Dirs         []string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Dirs:         []string{".agent42/skills", ".agent42/agents"},
		DebounceTime: 500,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if len(c.Dirs) == 0 {
		return errors.New("at least one directory to watch is required")
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch skill and profile directories and revalidate on change",
	Long: `Continuously monitors the skill and agent profile directories and
revalidates any SKILL.md or profile file as soon as it changes, so
authoring mistakes surface immediately instead of at task time.`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		runWatchMode(ctx, config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("dir", "d", defaults.Dirs, "Directories to watch")
	watchCmd.Flags().Int("debounce", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
	rootCmd.AddCommand(watchCmd)
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if dirs, err := cmd.Flags().GetStringSlice("dir"); err == nil {
		config.Dirs = dirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchMode(ctx context.Context, config *WatchConfig) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		logger.G(ctx).WithError(err).Fatal("Failed to create file watcher")
	}
	defer watcher.Close()

	// Setup debouncing mechanism
	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)

	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(config.DebounceTime)*time.Millisecond)

	// Process debounced events
	go func() {
		for {
			select {
			case event, ok := <-debouncedEvents:
				if !ok {
					return
				}
				presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
				logger.G(ctx).WithFields(map[string]interface{}{
					"file":      event.Path,
					"operation": event.Op.String(),
				}).Debug("File change detected")
				revalidateFile(ctx, event.Path)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watch for events
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !strings.HasSuffix(event.Name, ".md") {
					continue
				}
				events <- FileEvent{
					Path: event.Name,
					Op:   event.Op,
					Time: time.Now(),
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "File watcher error")
				logger.G(ctx).WithError(err).Error("Error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	watched := 0
	for _, dir := range config.Dirs {
		err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				logger.G(ctx).WithField("directory", path).Debug("Adding directory to watcher")
				if err := watcher.Add(path); err != nil {
					return err
				}
				watched++
			}
			return nil
		})
		if err != nil {
			presenter.Warning(fmt.Sprintf("Cannot watch %s: %v", dir, err))
			logger.G(ctx).WithError(err).WithField("directory", dir).Warn("Failed to watch directory")
		}
	}

	if watched == 0 {
		presenter.Error(errors.New("none of the configured directories could be watched"), "Nothing to watch")
		os.Exit(1)
	}

	presenter.Info("Watching for skill and profile changes... Press Ctrl+C to stop")
	logger.G(ctx).WithField("directories_count", watched).Info("File watcher initialized")

	<-ctx.Done()
}

// Debounce file events to prevent processing multiple rapid changes to the
// same file. The pending map is shared with the AfterFunc goroutines, so
// every access holds the mutex.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)

	stopAll := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, timer := range pending {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-input:
			if !ok {
				stopAll()
				return
			}

			mu.Lock()
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
			}
			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				mu.Lock()
				delete(pending, eventCopy.Path)
				mu.Unlock()

				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
			mu.Unlock()
		case <-ctx.Done():
			stopAll()
			return
		}
	}
}

// revalidateFile reloads the changed skill or profile and reports problems
func revalidateFile(ctx context.Context, path string) {
	if filepath.Base(path) == "SKILL.md" {
		revalidateSkill(ctx, filepath.Dir(path))
		return
	}
	revalidateProfile(ctx, path)
}

func revalidateSkill(ctx context.Context, dir string) {
	discovery, err := skills.NewDiscovery(skills.WithSkillDirs(filepath.Dir(dir)))
	if err != nil {
		presenter.Error(err, "Failed to initialize skill discovery")
		return
	}

	name := filepath.Base(dir)
	skill, err := discovery.GetSkill(name)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Skill '%s' failed to load", name))
		return
	}

	if err := skills.CheckRequirements(skill); err != nil {
		presenter.Warning(fmt.Sprintf("Skill '%s' loads but has unmet requirements: %v", name, err))
		return
	}
	presenter.Success(fmt.Sprintf("Skill '%s' is valid", name))
}

func revalidateProfile(ctx context.Context, path string) {
	processor, err := agents.NewProcessor(agents.WithProfileDirs(filepath.Dir(path)))
	if err != nil {
		presenter.Error(err, "Failed to initialize profile processor")
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), ".md")
	profile, err := processor.LoadProfile(ctx, name)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("Profile '%s' failed to load", name))
		return
	}

	if err := processor.ValidateProfile(profile); err != nil {
		presenter.Error(err, fmt.Sprintf("Profile '%s' is invalid", name))
		return
	}
	presenter.Success(fmt.Sprintf("Profile '%s' is valid", profile.Metadata.Name))
}
