package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/szaher/credprops/internal/config"
	"github.com/szaher/credprops/internal/expr"
	"github.com/szaher/credprops/internal/output"
	"github.com/szaher/credprops/internal/resolve"
	"github.com/szaher/credprops/internal/secrets"
	"github.com/szaher/credprops/internal/settings"
	"github.com/szaher/credprops/internal/telemetry"
	"github.com/szaher/credprops/internal/watch"
)

func newResolveCmd() *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve credential and repository properties",
		Long: `Loads the settings file and project descriptors, applies user overrides,
decrypts embedded secrets and writes the resolved properties.

Every flag can also be set through CREDPROPS_<FLAG>, for example
CREDPROPS_VAULT_ADDR for --vault-addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, filter := newLogger(cmd.ErrOrStderr())
			p, err := newPipeline(cfg, logger, filter, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !cfg.Watch {
				return p.run(ctx)
			}
			return p.watch(ctx)
		},
	}

	cfg.BindFlags(cmd.Flags())

	return cmd
}

// pipeline loads inputs, resolves them and writes the result. It is built
// once per process and run once, or on every change in watch mode.
type pipeline struct {
	cfg     *config.Config
	log     *slog.Logger
	filter  *secrets.RedactFilter
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	vault   *secrets.VaultDecrypter
	stdout  io.Writer
	environ []string
}

func newPipeline(cfg *config.Config, logger *slog.Logger, filter *secrets.RedactFilter, stdout io.Writer) (*pipeline, error) {
	p := &pipeline{
		cfg:     cfg,
		log:     logger,
		filter:  filter,
		metrics: telemetry.NewMetrics(),
		tracer:  telemetry.NewTracer(telemetry.LogExporter(logger)),
		stdout:  stdout,
		environ: os.Environ(),
	}
	if cfg.VaultAddr != "" {
		v, err := secrets.NewVaultDecrypter(cfg.VaultAddr, cfg.VaultToken)
		if err != nil {
			return nil, err
		}
		v.MountPath = cfg.VaultMount
		p.vault = v
		filter.AddSecret(cfg.VaultToken)
	}
	return p, nil
}

func (p *pipeline) watch(ctx context.Context) error {
	w, err := watch.New(p.cfg.WatchedFiles(), p.run, watch.Options{
		Debounce:       p.cfg.Debounce,
		Logger:         p.log,
		ReloadOnHangup: true,
	})
	if err != nil {
		return err
	}
	if err := w.Resolve(ctx); err != nil {
		return err
	}
	return w.Run(ctx)
}

// run performs one resolution and writes its output.
func (p *pipeline) run(ctx context.Context) error {
	ctx = telemetry.WithRunID(ctx, "")

	err := p.resolveAndWrite(ctx)
	if p.cfg.MetricsFile != "" {
		if merr := p.metrics.WriteTextfile(p.cfg.MetricsFile); merr != nil {
			p.log.Warn("writing metrics failed", "path", p.cfg.MetricsFile, "error", merr)
		}
	}
	return err
}

func (p *pipeline) resolveAndWrite(ctx context.Context) error {
	sess, sec, err := p.load()
	if err != nil {
		return err
	}

	r := resolve.New(resolve.Options{
		Decryptor: secrets.NewInlineDecryptor(p.decrypter(sec), p.log).OnFailure(p.metrics.DecryptFailure),
		EvaluatorFor: func(sess *settings.Session) resolve.Evaluator {
			return expr.NewEvaluator(expr.ScopeFor(sess, p.environ))
		},
		Logger:                  p.log,
		Metrics:                 p.metrics,
		Tracer:                  p.tracer,
		Redactor:                p.filter,
		AuthRequiresCredentials: p.cfg.AuthRequiresCredentials,
	})

	out, err := r.Run(ctx, sess)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(p.cfg.Format)
	if err != nil {
		return err
	}
	opts := output.Options{Name: p.cfg.Name, Namespace: p.cfg.Namespace}
	if p.cfg.Output == "" {
		return output.Write(p.stdout, format, out, opts)
	}
	if err := output.WriteFile(p.cfg.Output, format, out, opts); err != nil {
		return err
	}
	p.log.Info("properties written", "path", p.cfg.Output, "format", string(format), "count", len(out))
	return nil
}

// load reads every input file. User properties from -D override those from
// --properties-file.
func (p *pipeline) load() (*settings.Session, *settings.Security, error) {
	st, err := settings.LoadSettings(p.cfg.Settings)
	if err != nil {
		return nil, nil, err
	}
	sec, err := settings.LoadSecurity(p.cfg.Security)
	if err != nil {
		return nil, nil, err
	}

	projects := make([]*settings.Project, 0, len(p.cfg.Projects))
	for _, path := range p.cfg.Projects {
		proj, err := settings.LoadProject(path)
		if err != nil {
			return nil, nil, err
		}
		projects = append(projects, proj)
	}

	userProps := map[string]string{}
	if p.cfg.UserPropertiesFile != "" {
		fromFile, err := settings.LoadUserProperties(p.cfg.UserPropertiesFile)
		if err != nil {
			return nil, nil, err
		}
		maps.Copy(userProps, fromFile)
	}
	defined, err := settings.ParseUserProperties(p.cfg.UserProperties)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing -D: %w", err)
	}
	maps.Copy(userProps, defined)

	return settings.NewSession(st, projects, userProps), sec, nil
}

// decrypter routes {vault:...} and {env:...} tokens to their stores and
// everything else to the master password cipher.
func (p *pipeline) decrypter(sec *settings.Security) secrets.Decrypter {
	router := secrets.NewRouter(secrets.NewMasterDispatcher(sec.Master)).
		Handle("env", secrets.NewEnvDecrypter())
	if p.vault != nil {
		router.Handle("vault", p.vault)
	}
	return router
}
