// Package crypto exposes the primitives burna needs to protect message content.
//
// Contents
//
//   - Session key and anonymous id generation (NewSessionKey, NewAnonymousID)
//   - XChaCha20-Poly1305 authenticated encryption with a fresh random nonce
//     per call (Encrypt, Decrypt)
//   - A versioned, base64 JSON envelope that carries ciphertext and nonce as
//     one stored value (Seal, Open)
//   - Key transport encoding for share links (EncodeKey, DecodeKey)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short key fingerprints for out-of-band comparison (Fingerprint)
//
// # Errors
//
// Tag verification failures wrap domain.ErrAuthentication, malformed
// envelopes wrap domain.ErrDecoding, and a failing random source wraps
// domain.ErrEntropy. Callers should match them with errors.Is.
//
// The engine is stateless and payload-agnostic: text is passed as UTF-8
// bytes, images as already-encoded data URIs.
package crypto
