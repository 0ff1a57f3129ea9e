package main

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	audioimpl "github.com/foxseedlab/firassist/external/audio"
	"github.com/foxseedlab/firassist/internal/audio"
	"github.com/foxseedlab/firassist/internal/config"
	"github.com/foxseedlab/firassist/internal/language"
	"github.com/foxseedlab/firassist/internal/transcriber"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

type transcribeOptions struct {
	language       string
	saveNormalized string
}

func newTranscribeCmd(app *appState) *cobra.Command {
	opts := &transcribeOptions{}
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Normalize an audio file and print its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTranscribe(cmd.Context(), args[0], *opts)
		},
	}
	cmd.Flags().StringVar(&opts.language, "language", "", "Spoken language name, recognition tag or code (default from DEFAULT_LANGUAGE)")
	cmd.Flags().StringVar(&opts.saveNormalized, "save-normalized", "", "Also write the normalized 16-bit mono audio to this WAV path")
	return cmd
}

func (a *appState) runTranscribe(ctx context.Context, path string, opts transcribeOptions) error {
	lang, err := resolveCLILanguage(opts.language)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read audio file: %w", err)
	}

	cfg, err := a.boot()
	if err != nil {
		return err
	}
	defer a.syncLogger()
	if opts.language == "" {
		lang = defaultLanguage(cfg)
	}

	injector := setupDI(cfg)
	defer func() {
		if err := shutdownInjector(injector); err != nil {
			slog.Warn("shutdown finished with errors", "error", err)
		}
	}()

	normalizer := do.MustInvoke[*audio.Normalizer](injector)
	stt := do.MustInvoke[transcriber.Transcriber](injector)

	buf, err := normalizer.Normalize(audio.FileUpload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Data:        data,
	})
	if err != nil {
		return err
	}
	slog.Debug("audio normalized", "path", path, "duration", buf.Duration().String(), "sample_rate", buf.SampleRate)

	if opts.saveNormalized != "" {
		if err := saveWAV(opts.saveNormalized, buf); err != nil {
			return err
		}
	}

	text, err := stt.Transcribe(ctx, buf, lang.RecognitionTag)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, text)
	return nil
}

func resolveCLILanguage(name string) (language.Language, error) {
	if name == "" {
		return language.Default(), nil
	}
	lang, ok := language.Lookup(name)
	if !ok {
		return language.Language{}, fmt.Errorf("unsupported language %q; run \"firassist languages\" for the list", name)
	}
	return lang, nil
}

func defaultLanguage(cfg *config.Config) language.Language {
	if lang, ok := language.Lookup(cfg.DefaultLanguage); ok {
		return lang
	}
	return language.Default()
}

func saveWAV(path string, buf *audio.CanonicalBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := audioimpl.WriteWAV(f, buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	slog.Info("normalized audio saved", "path", path)
	return nil
}
