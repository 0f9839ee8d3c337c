package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/mynewsletters/voicebrief/internal/catalog"
	"github.com/mynewsletters/voicebrief/internal/config"
	"github.com/mynewsletters/voicebrief/internal/db"
	"github.com/mynewsletters/voicebrief/internal/jobs"
	"github.com/mynewsletters/voicebrief/internal/logger"
	"github.com/mynewsletters/voicebrief/internal/storage"
	"github.com/mynewsletters/voicebrief/internal/store/rabbitmq"
	"github.com/mynewsletters/voicebrief/internal/tts"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	gdb := db.Connect(cfg.DBDSN)
	repo := catalog.NewRepo(gdb)

	synth := tts.NewElevenLabs(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModel)
	uploads := storage.NewClient(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket)
	pipeline := jobs.NewAudioPipeline(repo, synth, uploads, log)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial failed", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel failed", zap.Error(err))
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.RabbitQueue + ".dlq",
	}); err != nil {
		log.Fatal("queue declare failed", zap.Error(err))
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos failed", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", concurrency))

	// Catch up on stories published while the worker was down.
	if n, err := pipeline.ProcessBacklog(ctx, 50); err != nil {
		log.Warn("startup backlog sweep failed", zap.Error(err))
	} else if n > 0 {
		log.Info("startup backlog sweep done", zap.Int("stories", n))
	}

	// worker pool
	work := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			wlog := log.With(zap.Int("worker", workerID))
			for d := range work {
				var m rabbitmq.AudioJobMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.StoryID == "" {
					wlog.Warn("bad message", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := pipeline.ProcessStory(ctx, m.StoryID); err != nil {
					wlog.Warn("audio job failed",
						zap.String("job_id", m.JobID),
						zap.String("story_id", m.StoryID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					wlog.Warn("ack failed", zap.String("job_id", m.JobID), zap.Error(err))
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(work)
			wg.Wait()
			return

		case d, okk := <-msgs:
			if !okk {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			work <- d
		}
	}
}
