package main

const (
	MsgInvalidRequest = "The request body could not be read. Send the image as the raw body, as a multipart field named \"file\", or base64-encoded in a JSON \"image\" field."

	MsgInvalidImage = "The uploaded file is not an image we can decode. Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP."

	MsgPoolUnavailable = "The blur service is shutting down and cannot accept new work. Please retry shortly."
)
