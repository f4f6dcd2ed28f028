package domain

import "fmt"

const MaxImages = 5

// An ImageList is the ordered set of product image URLs.
//
// The first URL is the main image. Positions are addressed by index only,
// so two identical URLs are still distinct entries.
type ImageList struct {
	urls []string
}

func NewImageList(urls ...string) (ImageList, error) {
	var l ImageList
	if err := l.Append(urls...); err != nil {
		return ImageList{}, err
	}
	return l, nil
}

func (l ImageList) Len() int {
	return len(l.urls)
}

func (l ImageList) URLs() []string {
	out := make([]string, len(l.urls))
	copy(out, l.urls)
	return out
}

func (l ImageList) Main() (string, bool) {
	if len(l.urls) == 0 {
		return "", false
	}
	return l.urls[0], true
}

func (l ImageList) At(i int) (string, error) {
	if err := l.checkIndex(i); err != nil {
		return "", err
	}
	return l.urls[i], nil
}

func (l *ImageList) Append(urls ...string) error {
	if len(l.urls)+len(urls) > MaxImages {
		return fmt.Errorf(
			"%w: %d exceeds %d", ErrTooManyImages, len(l.urls)+len(urls), MaxImages,
		)
	}
	l.urls = append(l.URLs(), urls...)
	return nil
}

func (l *ImageList) InsertAt(i int, url string) error {
	if i < 0 || i > len(l.urls) {
		return fmt.Errorf("image index %d out of range [0,%d]", i, len(l.urls))
	}
	if len(l.urls)+1 > MaxImages {
		return fmt.Errorf("%w: limit is %d", ErrTooManyImages, MaxImages)
	}
	urls := make([]string, 0, len(l.urls)+1)
	urls = append(urls, l.urls[:i]...)
	urls = append(urls, url)
	urls = append(urls, l.urls[i:]...)
	l.urls = urls
	return nil
}

func (l *ImageList) RemoveAt(i int) (string, error) {
	if err := l.checkIndex(i); err != nil {
		return "", err
	}
	removed := l.urls[i]
	urls := make([]string, 0, len(l.urls)-1)
	urls = append(urls, l.urls[:i]...)
	urls = append(urls, l.urls[i+1:]...)
	l.urls = urls
	return removed, nil
}

// Move shifts the entry at from to position to, keeping the relative order
// of the others.
func (l *ImageList) Move(from, to int) error {
	if err := l.checkIndex(from); err != nil {
		return err
	}
	if err := l.checkIndex(to); err != nil {
		return err
	}
	url, _ := l.RemoveAt(from)
	return l.InsertAt(to, url)
}

func (l ImageList) checkIndex(i int) error {
	if i < 0 || i >= len(l.urls) {
		return fmt.Errorf("image index %d out of range [0,%d)", i, len(l.urls))
	}
	return nil
}
