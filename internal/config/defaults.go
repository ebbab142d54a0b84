package config

const (
	defaultBind            = "127.0.0.1:8000"
	defaultReadTimeout     = 60
	defaultWriteTimeout    = 600
	defaultMaxImageBytes   = 10 << 20
	defaultMaxAudioBytes   = 50 << 20
	defaultBaseURL         = "https://router.huggingface.co/hf-inference"
	defaultRequestTimeout  = 300
	defaultRetryAttempts   = 4
	defaultRetryBaseDelay  = 1.0
	defaultRetryMultiplier = 2.0
	defaultRetryMaxDelay   = 60.0
	defaultHistoryPath     = "~/.local/share/modelgate/history.db"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                defaultBind,
			ReadTimeoutSeconds:  defaultReadTimeout,
			WriteTimeoutSeconds: defaultWriteTimeout,
			MaxImageBytes:       defaultMaxImageBytes,
			MaxAudioBytes:       defaultMaxAudioBytes,
		},
		Upstream: Upstream{
			BaseURL:        defaultBaseURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Retry: Retry{
			MaxAttempts:      defaultRetryAttempts,
			BaseDelaySeconds: defaultRetryBaseDelay,
			Multiplier:       defaultRetryMultiplier,
			MaxDelaySeconds:  defaultRetryMaxDelay,
		},
		Models: Models{
			TextGeneration: ModelList{
				Default: "mistralai/Mistral-7B-Instruct-v0.1",
				Fallbacks: []string{
					"HuggingFaceH4/zephyr-7b-beta",
					"tiiuae/falcon-7b-instruct",
				},
			},
			Embedding: ModelList{
				Default: "sentence-transformers/all-MiniLM-L6-v2",
				Fallbacks: []string{
					"sentence-transformers/all-mpnet-base-v2",
				},
			},
			TextToSpeech: ModelList{
				Default: "espnet/kan-bayashi_ljspeech_vits",
				Fallbacks: []string{
					"microsoft/speecht5_tts",
				},
			},
			SpeechToText: ModelList{
				Default: "openai/whisper-base",
				Fallbacks: []string{
					"openai/whisper-small",
					"openai/whisper-medium",
				},
			},
			ImageGeneration: ModelList{
				Default: "stabilityai/stable-diffusion-3-medium",
				Fallbacks: []string{
					"black-forest-labs/FLUX.1-dev",
					"runwayml/stable-diffusion-v1-5",
				},
			},
			ImageEdit: ModelList{
				Default: "stabilityai/stable-diffusion-xl-inpainting",
				Fallbacks: []string{
					"runwayml/stable-diffusion-inpainting",
				},
			},
			TextToVideo: ModelList{
				Default: "damo-vilab/text-to-video-ms-1.7b",
			},
			ImageToVideo: ModelList{
				Default: "stabilityai/stable-video-diffusion-img2vid",
				Fallbacks: []string{
					"stabilityai/stable-video-diffusion-img2vid-xt",
				},
			},
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
