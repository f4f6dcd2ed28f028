package domain

// An UploadItem is the outcome of a single staged image.
type UploadItem struct {
	Index int
	Key   string
	URL   string
	Err   error
}

func (i UploadItem) OK() bool {
	return i.Err == nil
}

// An UploadResult holds one item per submitted image in input order.
type UploadResult struct {
	Items []UploadItem
}

// URLs returns the uploaded URLs keeping the input order.
func (r UploadResult) URLs() []string {
	urls := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		if item.OK() {
			urls = append(urls, item.URL)
		}
	}
	return urls
}

func (r UploadResult) Uploaded() []UploadItem {
	return r.filter(true)
}

func (r UploadResult) Failed() []UploadItem {
	return r.filter(false)
}

func (r UploadResult) filter(ok bool) []UploadItem {
	var out []UploadItem
	for _, item := range r.Items {
		if item.OK() == ok {
			out = append(out, item)
		}
	}
	return out
}
