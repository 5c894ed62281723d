package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"wechat_md_publisher/converter"
)

// ImageKind tells how an image's bytes are obtained.
type ImageKind int

const (
	// RemoteURL images are downloaded over HTTP.
	RemoteURL ImageKind = iota
	// EmbeddedBinary images are data: URLs decoded in place.
	EmbeddedBinary
	// LocalFile images are read from disk relative to the Markdown file.
	LocalFile
)

func (k ImageKind) String() string {
	switch k {
	case RemoteURL:
		return "remote"
	case EmbeddedBinary:
		return "embedded"
	case LocalFile:
		return "local"
	}
	return "unknown"
}

// ImageRef is one <img> source that needs uploading.
type ImageRef struct {
	Source string
	Kind   ImageKind
}

// CollectImages returns the sources of every <img> in document order, except
// those already hosted on cdnHost. Repeated sources are listed each time.
func CollectImages(root *html.Node, cdnHost string) []ImageRef {
	var refs []ImageRef
	for _, img := range images(root) {
		src, _ := converter.Attr(img, "src")
		if src == "" || strings.Contains(src, cdnHost) {
			continue
		}
		refs = append(refs, ImageRef{Source: src, Kind: classify(src)})
	}
	return refs
}

func classify(src string) ImageKind {
	if strings.HasPrefix(src, "data:") {
		return EmbeddedBinary
	}
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && u.Scheme != "file" {
		return RemoteURL
	}
	return LocalFile
}

func images(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Img {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// replaceImages uploads every image of fragment to the CDN, one at a time in
// source order, and points each <img> at its CDN copy. An image that fails
// keeps its original source.
func (p *Publisher) replaceImages(ctx context.Context, sess *Session, fragment string, in Input) (string, error) {
	root, err := converter.ParseFragment(fragment)
	if err != nil {
		return "", renderError(err)
	}
	refs := CollectImages(root, p.cfg.CDNHost)
	if len(refs) == 0 {
		p.infof("No images to upload")
		return fragment, nil
	}

	p.progress(in, fmt.Sprintf("开始上传 %d 张图片...", len(refs)))
	for i, ref := range refs {
		p.progress(in, fmt.Sprintf("上传图片 %d/%d", i+1, len(refs)))

		cdnURL, err := p.uploadRef(ctx, sess, ref, in.BaseDir)
		if err != nil {
			if isAuthError(err) {
				return "", err
			}
			p.logger.Printf("[WARN] image %d/%d (%s) kept original source: %v", i+1, len(refs), displayName(ref), err)
			continue
		}
		p.infof("Uploaded image %s -> %s", displayName(ref), cdnURL)

		for _, img := range images(root) {
			if src, _ := converter.Attr(img, "src"); src == ref.Source {
				converter.SetAttr(img, "src", cdnURL)
			}
		}
	}
	p.progress(in, fmt.Sprintf("图片上传完成 (%d)", len(refs)))

	out, err := converter.RenderFragment(root)
	if err != nil {
		return "", renderError(err)
	}
	return out, nil
}

func displayName(ref ImageRef) string {
	if ref.Kind == EmbeddedBinary {
		return "data:image..."
	}
	if len(ref.Source) > 50 {
		return ref.Source[:50]
	}
	return ref.Source
}

func (p *Publisher) uploadRef(ctx context.Context, sess *Session, ref ImageRef, baseDir string) (string, error) {
	var (
		data     []byte
		mimeType string
		err      error
	)
	switch ref.Kind {
	case EmbeddedBinary:
		data, mimeType, err = decodeDataURL(ref.Source)
	case LocalFile:
		data, mimeType, err = readLocalImage(ref.Source, baseDir)
	default:
		data, mimeType, err = p.downloadImage(ctx, ref.Source)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	return p.uploadImage(ctx, sess, data, mimeType)
}

// decodeDataURL decodes data:[<mediatype>][;base64],<data>.
func decodeDataURL(src string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	mimeType, _, _ := strings.Cut(meta, ";")

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode data url: %w", err)
		}
		return data, mimeType, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data url: %w", err)
	}
	return []byte(text), mimeType, nil
}

// errLocalImagesDisabled is returned for file images when no base directory
// was given, which is the case for every network-facing caller.
var errLocalImagesDisabled = errors.New("local images are only read for files published from disk")

// readLocalImage reads src from inside baseDir. Paths that resolve outside
// baseDir, including through symlinks, are refused.
func readLocalImage(src, baseDir string) ([]byte, string, error) {
	if baseDir == "" {
		return nil, "", errLocalImagesDisabled
	}
	path := strings.TrimPrefix(src, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	rel, err := filepath.Rel(base, filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, "", fmt.Errorf("image %s is outside %s", src, baseDir)
	}

	root, err := os.OpenRoot(base)
	if err != nil {
		return nil, "", err
	}
	defer root.Close()
	f, err := root.Open(rel)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(rel))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

func (p *Publisher) downloadImage(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to download image: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	mimeType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mimeType == "" {
		mimeType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return data, mimeType, nil
}

func (p *Publisher) uploadImage(ctx context.Context, sess *Session, data []byte, mimeType string) (string, error) {
	token, err := sess.Token(ctx)
	if err != nil {
		return "", err
	}

	now := p.now()
	millis := now.UnixMilli()
	ext := "jpg"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok && sub != "" {
		ext = sub
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	fileName := fmt.Sprintf("%d.%s", millis, ext)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := [][2]string{
		{"type", mimeType},
		{"id", strconv.FormatInt(millis, 10)},
		{"name", fileName},
		{"lastModifiedDate", now.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")},
		{"size", strconv.Itoa(len(data))},
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	uploadURL := fmt.Sprintf("%s/cgi-bin/filetransfer?action=upload_material&f=json&scene=%d&writetype=doublewrite&groupid=1&ticket_id=&ticket=&svr_time=&token=%s&lang=zh_CN&seq=%d&t=%s",
		p.cfg.BaseURL, p.cfg.UploadScene, url.QueryEscape(token), millis, strconv.FormatFloat(rand.Float64(), 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := sess.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: invalid response (%d)", ErrImageUpload, resp.StatusCode)
	}
	result := gjson.ParseBytes(raw)
	errMsg := result.Get("base_resp.err_msg").String()
	cdnURL := result.Get("cdn_url").String()
	if errMsg != "ok" || cdnURL == "" {
		if errMsg == "" {
			errMsg = "未知错误"
		}
		return "", fmt.Errorf("%w: %s", ErrImageUpload, errMsg)
	}
	return cdnURL, nil
}
