package imagemeta

import "fmt"

// Mail subjects for the two notification paths.
const (
	successSubject   = "Image Upload Confirmation"
	rejectionSubject = "Image Upload Rejected"
)

func successMail(bucket, key string) (subject, html string) {
	html = fmt.Sprintf(
		`<html><body><h2>New image received</h2><p>Your image was uploaded successfully. Its location is <b>s3://%s/%s</b>.</p></body></html>`,
		bucket, key,
	)
	return successSubject, html
}

func rejectionMail(key, reason string) (subject, html string) {
	html = fmt.Sprintf(
		`<html><body><h2>Image upload rejected</h2><p>The file <b>%s</b> could not be processed.</p><p>Reason: %s</p></body></html>`,
		key, reason,
	)
	return rejectionSubject, html
}
