// Package utts is a unified client for text-to-speech providers.
//
// It wraps OpenAI, ElevenLabs, Cartesia, Hume, Zyphra, and the
// Replicate-hosted Kokoro and Orpheus models behind one Service interface,
// and runs comparisons across providers concurrently with per-task outcomes.
//
// Basic usage:
//
//	cfg := config.FromEnv()
//	client, err := utts.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	audio, err := client.Synthesize(ctx, "openai", "Hello!", tts.SynthesisConfig{Voice: "nova"})
//
// Comparing every configured provider on the same text:
//
//	outcomes, err := client.Compare(ctx, "Hello!", utts.WithRandomVoices())
//	for _, o := range outcomes {
//		if o.Failed() {
//			log.Printf("%s failed: %v", o.Provider, o.Err)
//			continue
//		}
//		os.WriteFile(o.Provider+".mp3", o.Audio, 0o644)
//	}
//
// Providers with no resolvable API key are simply absent from the client;
// that is not an error.
package utts
