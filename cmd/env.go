package main

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/visamate/visamate/internal/answers"
	"github.com/visamate/visamate/internal/forms"
	"github.com/visamate/visamate/internal/identity"
	"github.com/visamate/visamate/internal/llm"
	"github.com/visamate/visamate/internal/notify"
	"github.com/visamate/visamate/internal/ocr"
	"github.com/visamate/visamate/internal/session"
	"github.com/visamate/visamate/internal/sop"
	"github.com/visamate/visamate/internal/storage"
	"github.com/visamate/visamate/internal/store"
)

// appEnv holds the initialized store, clients and orchestrator needed by
// the serve command.
type appEnv struct {
	Store    store.Store
	Redis    *redis.Client // may be nil
	Orch     *session.Orchestrator
	Identity identity.Provider // may be nil
	Verifier *identity.Verifier
}

// Close releases resources held by the environment. Background OCR jobs are
// drained first.
func (e *appEnv) Close() {
	if e.Orch != nil {
		e.Orch.Wait()
	}
	if e.Redis != nil {
		_ = e.Redis.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the metadata store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initAnswers returns the answer and OCR stores. The redis client is nil for
// the memory backend.
func initAnswers(ctx context.Context) (answers.Store, answers.Store, *redis.Client, error) {
	if cfg.Answers.Backend != "redis" {
		zap.L().Warn("using in-memory answer store; answers are lost on restart")
		return answers.NewMemoryStore(), answers.NewMemoryStore(), nil, nil
	}

	client := answers.NewRedisClient(answers.RedisOptions{
		Addr:     cfg.Answers.RedisAddr,
		Password: cfg.Answers.RedisPassword,
		DB:       cfg.Answers.RedisDB,
	})
	ttl := time.Duration(cfg.Answers.TTLHours) * time.Hour
	ans := answers.NewRedisStore(client, answers.AnswersNamespace, ttl)
	if err := ans.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, nil, eris.Wrap(err, "ping redis")
	}
	return ans, answers.NewRedisStore(client, answers.OCRNamespace, ttl), client, nil
}

// needsAWS reports whether any configured component talks to AWS.
func needsAWS() bool {
	return cfg.Storage.Bucket != "" ||
		cfg.OCR.Provider == "textract" ||
		cfg.Notify.TopicARN != "" ||
		cfg.Auth.UserPoolID != ""
}

func loadAWS(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, eris.Wrap(err, "load aws config")
	}
	return awsCfg, nil
}

// initRecognizer builds the configured OCR backend. awsCfg is only read for
// the textract provider.
func initRecognizer(awsCfg aws.Config) (ocr.Recognizer, error) {
	var api ocr.TextractAPI
	if cfg.OCR.Provider == "textract" {
		api = textract.NewFromConfig(awsCfg)
	}
	return ocr.NewRecognizer(cfg.OCR, api)
}

// initGenerator returns nil when no LLM provider is configured.
func initGenerator(ctx context.Context) (*sop.Generator, error) {
	if cfg.Anthropic.Key == "" && cfg.Gemini.Key == "" {
		return nil, nil
	}
	gen, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sop.NewGenerator(gen, cfg.SOP.MinWords, cfg.SOP.MaxWords), nil
}

func sessionOptions() session.Options {
	opts := session.DefaultOptions()
	if cfg.Storage.MaxUploadMB > 0 {
		opts.MaxUploadBytes = int64(cfg.Storage.MaxUploadMB) << 20
	}
	if cfg.Storage.PresignSecs > 0 {
		opts.PresignExpiry = time.Duration(cfg.Storage.PresignSecs) * time.Second
	}
	if cfg.Storage.OCRTimeoutSec > 0 {
		opts.OCRTimeout = time.Duration(cfg.Storage.OCRTimeoutSec) * time.Second
	}
	return opts
}

// initEnv wires the orchestrator and its collaborators. Components without
// configuration are left out; the operations that need them report an
// upstream error. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("serve"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &appEnv{Store: st, Verifier: identity.NewVerifier(cfg.Auth.JWTSecret)}

	ans, ocrData, rdb, err := initAnswers(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Redis = rdb

	opts := sessionOptions()
	deps := session.Deps{
		Store:   st,
		Answers: ans,
		OCRData: ocrData,
		Filler:  forms.NewFiller(forms.NewVisaPolicy(cfg.Forms.VisaRequiredCountries)),
		Options: opts,
	}

	var awsCfg aws.Config
	if needsAWS() {
		if awsCfg, err = loadAWS(ctx); err != nil {
			env.Close()
			return nil, err
		}
	}

	if cfg.Storage.Bucket != "" {
		deps.Storage = storage.NewS3(awsCfg, cfg.Storage.Bucket, opts.PresignExpiry)
	} else {
		zap.L().Warn("storage.bucket not set; using in-memory object storage")
		deps.Storage = storage.NewMemory("local")
	}

	if deps.Recognizer, err = initRecognizer(awsCfg); err != nil {
		env.Close()
		return nil, err
	}

	if cfg.Notify.TopicARN != "" {
		deps.Publisher = notify.NewSNS(awsCfg, cfg.Notify.TopicARN)
	}

	if deps.SOP, err = initGenerator(ctx); err != nil {
		env.Close()
		return nil, err
	}
	if deps.SOP == nil {
		zap.L().Warn("no llm key configured; statement of purpose generation disabled")
	}

	if cfg.Auth.UserPoolID != "" && cfg.Auth.ClientID != "" {
		env.Identity = identity.NewCognito(awsCfg, cfg.Auth.UserPoolID, cfg.Auth.ClientID)
	}

	env.Orch = session.New(deps)

	zap.L().Info("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.String("answers", cfg.Answers.Backend),
		zap.String("ocr", cfg.OCR.Provider),
		zap.Bool("sop", deps.SOP != nil),
		zap.Bool("auth", env.Verifier != nil),
		zap.Bool("notify", deps.Publisher != nil),
	)
	return env, nil
}
