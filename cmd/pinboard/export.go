package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pinboard/internal/pins/app"
	"pinboard/internal/pins/db"
	"pinboard/internal/pins/domain/entities"
	"pinboard/internal/pins/ports/repositories"
	"pinboard/pkg/logger"
)

// ErrRecordNotFound возвращается, если запрошенной записи нет в хранилище.
var ErrRecordNotFound = errors.New("page record not found")

type exportOptions struct {
	id     string
	origin string
	url    string
	out    string
}

func buildExportCmd(configPath *string) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored page records as JSON",
		Example: `  # Every record in the store
  pinboard export

  # One page, into the default export file
  pinboard export --origin https://example.com --url https://example.com/a --out ` + app.ExportFileName,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context(), *configPath, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.id, "id", "", "Page identity (origin|url) of a single record")
	cmd.Flags().StringVar(&opts.origin, "origin", "", "Page origin, used with --url instead of --id")
	cmd.Flags().StringVar(&opts.url, "url", "", "Page URL, used with --origin instead of --id")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file; stdout when empty")
	cmd.MarkFlagsMutuallyExclusive("id", "origin")
	cmd.MarkFlagsMutuallyExclusive("id", "url")
	cmd.MarkFlagsRequiredTogether("origin", "url")

	return cmd
}

func runExport(ctx context.Context, configPath string, opts exportOptions, stdout io.Writer) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	log := logger.Log(ctx)

	repo, err := db.Open(ctx, cfg)
	if err != nil {
		log.Error(ctx, ErrOpenStore, zap.Error(err))
		return err
	}
	defer func() {
		if err := repo.Close(ctx); err != nil {
			log.Warn(ctx, "failed to close record store", zap.Error(err))
		}
	}()

	write := func(w io.Writer) error {
		return exportRecords(ctx, repo, opts.identity(), w)
	}

	if opts.out == "" {
		err = write(stdout)
	} else {
		var f *os.File
		f, err = os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrExport, err)
		}
		err = writeAndClose(f, write)
	}
	if err != nil {
		log.Error(ctx, ErrExport, zap.Error(err))
		return err
	}
	return nil
}

// writeAndClose пишет в w и закрывает его; ошибка закрытия означает, что файл не дописан.
func writeAndClose(w io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("%s: %w", ErrExport, closeErr))
		}
	}()
	return write(w)
}

func (o exportOptions) identity() string {
	if o.origin != "" || o.url != "" {
		return entities.Page{Origin: o.origin, URL: o.url}.Identity()
	}
	return o.id
}

// exportRecords пишет одну запись по id или, при пустом id, все записи массивом.
func exportRecords(ctx context.Context, repo repositories.RecordRepository, id string, w io.Writer) error {
	if id == "" {
		records, err := repo.GetAll(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrExport, err)
		}
		return app.WriteJSON(w, records)
	}

	record, err := repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrExport, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return app.WriteJSON(w, record)
}
