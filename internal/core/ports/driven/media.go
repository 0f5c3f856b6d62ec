package driven

import "context"

// OCREngine recognises text in images.
type OCREngine interface {
	// RecognizeImage returns the text found in image. An image with no
	// text returns "" and no error.
	RecognizeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Transcriber converts speech to text.
type Transcriber interface {
	// Transcribe returns the transcript of audio. filename carries the
	// extension the backend uses to detect the format.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}
