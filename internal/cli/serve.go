package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/api"
	"github.com/ppiankov/finsent/internal/pipeline"
	"github.com/ppiankov/finsent/internal/queue"
	"github.com/ppiankov/finsent/internal/schedule"
)

var serveAddr string

// serveCmd exposes the pipeline over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the ingestion, scoring and article endpoints over HTTP:

  GET  /healthz
  POST /v1/ingest
  POST /v1/run
  POST /v1/score
  GET  /v1/articles
  GET  /v1/articles/:id`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		p, err := s.pipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		addr := serveAddr
		if addr == "" {
			addr = net.JoinHostPort(s.cfg.API.Host, strconv.Itoa(s.cfg.API.Port))
		}

		srv := api.NewServer(p, p.Analyzer(), p.Store(), s.logger)
		return srv.ListenAndServe(s.ctx, addr)
	},
}

// workerCmd drains the scoring queue
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Score queued articles in the background",
	Long: `Pop article IDs published by "finsent ingest", score each article and
store the result. Requires queue.enabled and a database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		p, err := s.pipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		q, err := queue.NewRedisQueue(s.ctx, s.cfg.Queue)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer q.Close()

		s.logger.Info("waiting for articles", zap.String("key", q.Key()))
		return queue.NewWorker(q, p.Store(), p.Analyzer(), s.logger).Run(s.ctx)
	},
}

var (
	scheduleCron  string
	scheduleScore bool
)

// scheduleCmd runs the pipeline on a cron expression
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline periodically",
	Long: `Run ingestion on a cron schedule until interrupted. Standard 5-field
expressions and descriptors such as @hourly are accepted:

  finsent schedule --cron "*/30 * * * *" --score

A tick that fires while the previous run is still going is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := ingestRequest()
		if err != nil {
			return err
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		p, err := s.pipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		spec := scheduleCron
		if spec == "" {
			spec = s.cfg.Schedule.Cron
		}

		run := func(ctx context.Context) error {
			_, err := p.Run(ctx, pipeline.RunRequest{IngestRequest: req, Score: scheduleScore})
			return err
		}

		sched, err := schedule.New(spec, run, ingestTimeout, s.logger)
		if err != nil {
			return err
		}
		if err := sched.Start(s.ctx); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Scheduled %q, next run at %s\n", spec, sched.Next().Format(time.RFC3339))
		<-s.ctx.Done()
		sched.Stop()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: api.host:api.port)")

	addIngestFlags(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (default: schedule.cron)")
	scheduleCmd.Flags().BoolVar(&scheduleScore, "score", false, "score inline instead of queueing")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(scheduleCmd)
}
