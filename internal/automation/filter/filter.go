package filter

import "strings"

// Verdict is the outcome of one guard. A Skip verdict terminates
// processing for the message: it is marked read and dropped.
type Verdict struct {
	Skip   bool
	Reason string
}

// Clean is the pass-through verdict.
var Clean = Verdict{}

func skip(reason string) Verdict {
	return Verdict{Skip: true, Reason: reason}
}

// Headers that indicate an auto-generated message.
var autoReplyHeaders = []string{"Auto-Submitted", "X-Autoreply", "X-Autorespond", "X-Auto-Response-Suppress"}

var noReplyPhrases = []string{
	"out of office",
	"out-of-office",
	"do not reply",
	"don't reply",
	"automatically generated",
	"automated response",
	"auto-generated",
	"this is an automatic",
	"undeliverable",
	"delivery status notification",
}

var noReplySenders = []string{"noreply@", "no-reply@", "donotreply@", "do-not-reply@", "mailer-daemon@", "bounce@"}

var spamKeywords = []string{
	"viagra",
	"casino",
	"lottery",
	"you have won",
	"wire transfer",
	"bitcoin investment",
	"crypto investment",
	"work from home opportunity",
	"make money fast",
	"click here now",
	"100% free",
	"risk-free",
	"nigerian prince",
}

var marketingKeywords = []string{
	"unsubscribe",
	"view in browser",
	"view this email in your browser",
	"limited time offer",
	"exclusive deal",
	"flash sale",
	"special offer",
	"newsletter",
	"promo code",
	"discount code",
}

var bulkSenders = []string{"newsletter@", "marketing@", "promo@", "offers@", "deals@", "news@", "updates@", "digest@"}

// AutoReply guards against auto-reply feedback loops: auto-submission
// headers, subject lines that already carry stacked reply markers, no
// -reply body phrases, and no-reply sender addresses all short-circuit.
func AutoReply(headers map[string]string, subject, body, from string) Verdict {
	for _, h := range autoReplyHeaders {
		if headerValue(headers, h) != "" {
			return skip("auto-submitted header " + h)
		}
	}
	if prec := strings.ToLower(headerValue(headers, "Precedence")); prec == "auto_reply" || prec == "bulk" {
		return skip("precedence " + prec)
	}

	lowerSubject := strings.ToLower(subject)
	if strings.Count(lowerSubject, "automatic reply:") >= 2 {
		return skip("stacked automatic reply subject")
	}
	if strings.Count(lowerSubject, "re:") >= 5 {
		return skip("deeply nested reply subject")
	}

	lowerBody := strings.ToLower(body)
	for _, phrase := range noReplyPhrases {
		if strings.Contains(lowerBody, phrase) {
			return skip("no-reply phrase: " + phrase)
		}
	}

	if matchesSenderPrefix(from, noReplySenders) {
		return skip("no-reply sender")
	}
	return Clean
}

// Spam matches the default spam keyword list against subject and body
// and rejects generic no-reply senders. Callers gate it on the
// tenant's spam-filter toggle.
func Spam(subject, body, from string) Verdict {
	haystack := strings.ToLower(subject + " " + body)
	for _, kw := range spamKeywords {
		if strings.Contains(haystack, kw) {
			return skip("spam keyword: " + kw)
		}
	}
	if matchesSenderPrefix(from, noReplySenders) {
		return skip("no-reply sender")
	}
	return Clean
}

// Marketing detects bulk marketing mail via keywords, a
// List-Unsubscribe header, or a known bulk-sender address prefix.
// Callers gate it on the tenant's auto-archive toggle.
func Marketing(headers map[string]string, subject, body, from string) Verdict {
	if headerValue(headers, "List-Unsubscribe") != "" {
		return skip("list-unsubscribe header")
	}
	haystack := strings.ToLower(subject + " " + body)
	for _, kw := range marketingKeywords {
		if strings.Contains(haystack, kw) {
			return skip("marketing keyword: " + kw)
		}
	}
	if matchesSenderPrefix(from, bulkSenders) {
		return skip("bulk sender")
	}
	return Clean
}

// Evaluate runs the ordered chain. Each guard is deterministic and
// independent; ordering only affects which reason wins when several
// would fire.
func Evaluate(headers map[string]string, subject, body, from string, spamEnabled, marketingEnabled bool) Verdict {
	if v := AutoReply(headers, subject, body, from); v.Skip {
		return v
	}
	if spamEnabled {
		if v := Spam(subject, body, from); v.Skip {
			return v
		}
	}
	if marketingEnabled {
		if v := Marketing(headers, subject, body, from); v.Skip {
			return v
		}
	}
	return Clean
}

// headerValue looks up a header case-insensitively.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// matchesSenderPrefix checks the local-part prefix of the address
// inside a From header (which may carry a display name).
func matchesSenderPrefix(from string, prefixes []string) bool {
	addr := strings.ToLower(from)
	if start := strings.LastIndex(addr, "<"); start != -1 {
		addr = strings.TrimSuffix(addr[start+1:], ">")
	}
	addr = strings.TrimSpace(addr)
	for _, p := range prefixes {
		if strings.HasPrefix(addr, p) {
			return true
		}
	}
	return false
}
