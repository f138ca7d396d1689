package secrets

import (
	"context"
	"iter"
	"log/slog"
	"strings"
)

// Segment is one piece of a scanned value: literal text or a {...} token.
type Segment struct {
	Text  string
	Token bool
}

// Scan splits s into literal and token segments. A token is a '{' followed by
// at least one character other than '}' and then a closing '}'. Tokens do not
// nest: in "{{a}" the whole span is one token.
func Scan(s string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		start, i := 0, 0
		for i < len(s) {
			open := strings.IndexByte(s[i:], '{')
			if open < 0 {
				break
			}
			open += i
			closing := strings.IndexByte(s[open+1:], '}')
			if closing < 0 {
				break
			}
			if closing == 0 {
				i = open + 1
				continue
			}
			end := open + closing + 2
			if open > start {
				if !yield(Segment{Text: s[start:open]}) {
					return
				}
			}
			if !yield(Segment{Text: s[open:end], Token: true}) {
				return
			}
			start, i = end, end
		}
		if start < len(s) {
			yield(Segment{Text: s[start:]})
		}
	}
}

// HasToken reports whether s contains at least one token.
func HasToken(s string) bool {
	for seg := range Scan(s) {
		if seg.Token {
			return true
		}
	}
	return false
}

// InlineDecryptor replaces every token in a value with its plaintext.
type InlineDecryptor struct {
	decrypter Decrypter
	log       *slog.Logger
	onFailure func()
}

// NewInlineDecryptor creates an InlineDecryptor backed by d.
func NewInlineDecryptor(d Decrypter, log *slog.Logger) *InlineDecryptor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &InlineDecryptor{decrypter: d, log: log}
}

// OnFailure registers fn to be called each time a token cannot be decrypted.
func (i *InlineDecryptor) OnFailure(fn func()) *InlineDecryptor {
	i.onFailure = fn
	return i
}

// DecryptInline returns value with every token replaced by its decrypted
// text. A token that fails to decrypt is kept as written; the failure is
// logged and never returned. Values without tokens are returned untouched
// and the decrypter is not consulted.
func (i *InlineDecryptor) DecryptInline(ctx context.Context, value string) string {
	if !HasToken(value) {
		return value
	}

	var sb strings.Builder
	sb.Grow(len(value))
	for seg := range Scan(value) {
		if !seg.Token {
			sb.WriteString(seg.Text)
			continue
		}
		plain, err := i.decrypter.Decrypt(ctx, seg.Text)
		if err != nil {
			i.log.Debug("token left encrypted", "length", len(seg.Text), "err", err)
			if i.onFailure != nil {
				i.onFailure()
			}
			sb.WriteString(seg.Text)
			continue
		}
		sb.WriteString(plain)
	}
	return sb.String()
}
