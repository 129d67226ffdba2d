package har

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/capture"
)

// unknownSize marks header sizes the transport does not expose
const unknownSize = -1

// FromExchange converts a finalized exchange into a HAR entry.
// a faulted exchange becomes an entry with status 0 and the fault in the entry comment,
// the convention browsers use for requests that never got a response.
func FromExchange(exchange *capture.Exchange) harhar.Entry {
	millis := durationMillis(exchange.Duration)

	entry := harhar.Entry{
		Start:   exchange.StartedAt.Format(time.RFC3339Nano),
		Time:    millis,
		Request: buildRequest(exchange),
		Timings: harhar.Timings{
			Wait: millis,
		},
	}

	notes := Notes{Request: bodyNotes(exchange.Request.Body)}
	if exchange.Response != nil {
		entry.Response = buildResponse(exchange.Response)
		notes.Response = bodyNotes(exchange.Response.Body)
	} else {
		entry.Response = harhar.Response{
			HTTPVersion: httpVersion(exchange.Proto),
			HeadersSize: unknownSize,
			BodySize:    unknownSize,
		}
	}
	if exchange.Faulted() {
		notes.Fault = exchange.Fault.Error()
	}
	entry.Comment = notes.Comment()

	return entry
}

func buildRequest(exchange *capture.Exchange) harhar.Request {
	req := harhar.Request{
		Method:      exchange.Method,
		URL:         exchange.URL,
		HTTPVersion: httpVersion(exchange.Proto),
		Headers:     nameValuePairs(exchange.Request.Headers),
		QueryParams: queryParams(exchange.URL),
		Cookies:     requestCookies(exchange.Request.Headers),
		HeadersSize: unknownSize,
		BodySize:    int(exchange.Request.ContentLength),
	}

	if body := exchange.Request.Body; body != nil && body.Kind() != capture.KindEmpty {
		req.Body = harhar.BodyType{
			MIMEType: requestMimeType(exchange.Request.Headers, body),
			Content:  bodyContent(body),
		}
	} else {
		req.BodySize = 0
	}
	return req
}

func buildResponse(resp *capture.ResponseRecord) harhar.Response {
	out := harhar.Response{
		StatusCode:  resp.StatusCode,
		StatusText:  resp.Reason,
		HTTPVersion: httpVersion(resp.Proto),
		Headers:     nameValuePairs(resp.Headers),
		Cookies:     responseCookies(resp.Headers),
		HeadersSize: unknownSize,
		BodySize:    int(resp.ContentLength),
	}

	mimeType := resp.Headers.Value("Content-Type")
	if mimeType == "" {
		mimeType = capture.BodyMediaType(resp.Body)
	}
	out.Body = harhar.BodyResponseType{
		Size:     int(resp.ContentLength),
		MIMEType: mimeType,
		Content:  bodyContent(resp.Body),
	}
	if img, ok := resp.Body.(capture.ImageBody); ok {
		out.Body.Size = int(img.Size)
	}
	return out
}

// bodyContent renders a captured body as HAR text. multipart fields use curl's
// name=value and name=@path notation, images carry no inline text.
func bodyContent(body capture.Body) string {
	switch b := body.(type) {
	case capture.TextBody:
		return b.Text
	case capture.RawBody:
		return b.Text
	case capture.FormBody:
		return b.Raw
	case capture.MultipartBody:
		return multipartContent(b.Fields)
	default:
		return ""
	}
}

func bodyNotes(body capture.Body) []string {
	switch b := body.(type) {
	case capture.ImageBody:
		return []string{ImageSavedNote + b.SavedPath}
	case capture.MultipartBody:
		var notes []string
		for _, field := range b.Fields {
			if field.IsFile() {
				notes = append(notes, fmt.Sprintf("upload %s saved to %s", field.FileName, field.SavedPath))
			}
		}
		return notes
	case capture.FailedBody:
		return []string{fmt.Sprintf("%s %s%s", b.Class, extractionFailedNote, b.Message)}
	case capture.RawBody:
		if b.MissingContentType {
			return []string{"has no content-type"}
		}
	}
	return nil
}

func requestMimeType(headers capture.Headers, body capture.Body) string {
	if ct := headers.Value("Content-Type"); ct != "" {
		return ct
	}
	return capture.BodyMediaType(body)
}

func nameValuePairs(headers capture.Headers) []harhar.NameValuePair {
	pairs := make([]harhar.NameValuePair, 0, len(headers))
	for _, field := range headers {
		for _, value := range field.Values {
			pairs = append(pairs, harhar.NameValuePair{Name: field.Name, Value: value})
		}
	}
	return pairs
}

func queryParams(rawURL string) []harhar.NameValuePair {
	params := make([]harhar.NameValuePair, 0)
	u, err := url.Parse(rawURL)
	if err != nil {
		return params
	}

	query := u.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range query[key] {
			params = append(params, harhar.NameValuePair{Name: key, Value: value})
		}
	}
	return params
}

func requestCookies(headers capture.Headers) []harhar.Cookie {
	cookies := make([]harhar.Cookie, 0)
	for _, line := range headers.Get("Cookie") {
		parsed, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		for _, c := range parsed {
			cookies = append(cookies, harhar.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return cookies
}

func responseCookies(headers capture.Headers) []harhar.Cookie {
	cookies := make([]harhar.Cookie, 0)
	for _, line := range headers.Get("Set-Cookie") {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		cookies = append(cookies, harhar.Cookie{Name: c.Name, Value: c.Value})
	}
	return cookies
}

func httpVersion(proto string) string {
	if proto == "" {
		return "HTTP/1.1"
	}
	return proto
}

func durationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
