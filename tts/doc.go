// Package tts provides text-to-speech synthesis across multiple providers.
//
// Each provider implements the Service interface so callers can synthesize
// speech without coupling to a vendor API:
//
//   - OpenAI (tts-1, tts-1-hd)
//   - ElevenLabs (eleven_multilingual_v2 and friends)
//   - Cartesia (Sonic models, plus WebSocket streaming)
//   - Hume (Octave, with voice descriptions and continuity)
//   - Zyphra (Zonos models)
//   - Kokoro and Orpheus (hosted on Replicate)
//
// Basic usage:
//
//	svc := tts.NewOpenAI(apiKey)
//	audio, err := svc.Synthesize(ctx, "Hello, world!", tts.DefaultSynthesisConfig())
//	if err != nil {
//		return err
//	}
//	defer audio.Close()
//
// The Registry maps provider names to factories and to the voice and model
// domains each provider accepts, which is what the batch and comparison
// layers build services from.
package tts
