package publisher

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// article is the single post sent to the draft endpoint.
type article struct {
	Title   string
	Author  string
	Digest  string
	Content string
}

// articleForm builds the form the platform editor posts when saving a new
// draft. Fields the editor leaves blank are sent blank.
func articleForm(token string, a article) url.Values {
	autoDigest := "1"
	if a.Digest != "" {
		autoDigest = "0"
	}

	form := url.Values{}
	for k, v := range map[string]string{
		"token":                      token,
		"lang":                       "zh_CN",
		"f":                          "json",
		"ajax":                       "1",
		"random":                     strconv.FormatFloat(rand.Float64(), 'f', -1, 64),
		"AppMsgId":                   "",
		"count":                      "1",
		"data_seq":                   "0",
		"operate_from":               "Chrome",
		"isnew":                      "0",
		"ad_video_transition0":       "",
		"can_reward0":                "0",
		"related_video0":             "",
		"is_video_recommend0":        "-1",
		"title0":                     a.Title,
		"author0":                    a.Author,
		"writerid0":                  "0",
		"fileid0":                    "",
		"digest0":                    a.Digest,
		"auto_gen_digest0":           autoDigest,
		"content0":                   a.Content,
		"sourceurl0":                 "",
		"need_open_comment0":         "1",
		"only_fans_can_comment0":     "0",
		"cdn_url0":                   "",
		"cdn_235_1_url0":             "",
		"cdn_1_1_url0":               "",
		"cdn_url_back0":              "",
		"crop_list0":                 "",
		"music_id0":                  "",
		"video_id0":                  "",
		"voteid0":                    "",
		"voteismlt0":                 "",
		"supervoteid0":               "",
		"cardid0":                    "",
		"cardquantity0":              "",
		"cardlimit0":                 "",
		"vid_type0":                  "",
		"show_cover_pic0":            "0",
		"shortvideofileid0":          "",
		"copyright_type0":            "0",
		"releasefirst0":              "",
		"platform0":                  "",
		"reprint_permit_type0":       "",
		"allow_reprint0":             "",
		"allow_reprint_modify0":      "",
		"original_article_type0":     "",
		"ori_white_list0":            "",
		"free_content0":              "",
		"fee0":                       "0",
		"ad_id0":                     "",
		"guide_words0":               "",
		"is_share_copyright0":        "0",
		"share_copyright_url0":       "",
		"source_article_type0":       "",
		"reprint_recommend_title0":   "",
		"reprint_recommend_content0": "",
		"share_page_type0":           "0",
		"share_imageinfo0":           `{"list":[]}`,
		"share_video_id0":            "",
		"dot0":                       "{}",
		"share_voice_id0":            "",
		"insert_ad_mode0":            "",
		"categories_list0":           "[]",
	} {
		form.Set(k, v)
	}
	return form
}

// submit posts the article to the draft endpoint and returns the editor URL
// of the new draft.
func (p *Publisher) submit(ctx context.Context, sess *Session, a article) (string, error) {
	token, err := sess.Token(ctx)
	if err != nil {
		return "", err
	}

	publishURL := fmt.Sprintf("%s/cgi-bin/operate_appmsg?t=ajax-response&sub=create&type=77&token=%s&lang=zh_CN",
		p.cfg.BaseURL, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, "POST", publishURL, strings.NewReader(articleForm(token, a).Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := sess.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: draft endpoint returned %d", ErrNetwork, resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("%w: draft endpoint returned non-JSON body", ErrNetwork)
	}

	result := gjson.ParseBytes(raw)
	if id := result.Get("appMsgId").String(); id != "" && id != "0" {
		return fmt.Sprintf("%s/cgi-bin/appmsg?t=media/appmsg_edit&action=edit&type=77&appmsgid=%s&token=%s&lang=zh_CN",
			p.cfg.BaseURL, id, url.QueryEscape(token)), nil
	}
	return "", newRejection(returnCode(result))
}

// returnCode reads ret, falling back to base_resp.ret.
func returnCode(result gjson.Result) int {
	ret := result.Get("ret")
	if !ret.Exists() || ret.Type == gjson.Null {
		ret = result.Get("base_resp.ret")
	}
	return int(ret.Int())
}
