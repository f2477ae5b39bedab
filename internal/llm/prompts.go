// filename: internal/llm/prompts.go
package llm

import (
	"fmt"
	"strings"
)

// BuildGenerationPrompt строит промпт генерации правила по описанию
// уязвимости. Шаблоны по типам уязвимостей фиксируют структуру pcre,
// модель заполняет только параметры. // v1.0
func BuildGenerationPrompt(vulnName, vulnDescription, vulnType, poc string) string {
	var b strings.Builder

	b.WriteString("You are a Suricata rule writing expert. Generate one Suricata rule for the vulnerability below.\n\n")
	fmt.Fprintf(&b, "Vulnerability name: %s\n", vulnName)
	fmt.Fprintf(&b, "Vulnerability type: %s\n", vulnType)
	fmt.Fprintf(&b, "Description: %s\n", vulnDescription)

	if poc != "" {
		fmt.Fprintf(&b, "\nProof of concept:\n%s\n", poc)
	}

	b.WriteString(`
Follow these requirements strictly:

1. Rule format:
   - Required fields: msg, flow, sid, rev
   - Forbidden fields: reference, classtype, affected_version, detection_accuracy, affected_product, metadata
   - msg contains only the vulnerability name, no prefixes
   - sid is a random 7-digit number in the 9000000-9999999 range
   - rev is always 1

2. HTTP feature selection:
   - Omit http.method unless a single method is strictly required
   - Keep URL paths to 1-2 directory levels, avoid fixed install paths
   - Strip a trailing question mark from the path
   - Request parameters must include the exploitation point; split parameters into separate content matches

3. Regular expressions:
   - Always use pcre with an explicit scope modifier (U/I/H/P)
   - Keep hex escape sequences in pcre verbatim: never rewrite \x26, \x5f or
     constructs like (\x5f|%5f) into their ASCII equivalents
   - Fill in the parameter names only; the pcre body from the template must not change

4. Templates by vulnerability type (follow exactly, replace only the quoted placeholders):

[SQL injection]
alert http any any -> any any (msg:"VULN TITLE"; flow:established,to_server; http.uri.raw; content:"REQUEST URI"; nocase; content:"INJECTABLE PARAM="; nocase; pcre:"/INJECTABLE PARAM=[^\r\n\x26]{0,10}(select|union|sleep|load(\x5f|%5f)file|update|from|concat|where|outfile|count|waitfor|create|mysql|updatexml|insert|hextoraw|(\x2d|%2d){2}|\x27|%27|\x23|%23)/Ii"; sid:XXXXXXX; rev:1;)

[Command injection]
alert http any any -> any any (msg:"VULN TITLE"; flow:established,to_server; http.uri; content:"REQUEST URI"; nocase; http.request_body; content:"COMMAND PARAM="; nocase; pcre:"/COMMAND PARAM=[^\r\n\x26]{0,10}(\x60|\x2560|\x27|\x2527|\x3b|\x253b|\x7c|\x257c)/Pi"; sid:XXXXXXX; rev:1;)

[File read / path traversal]
alert http any any -> any any (msg:"VULN TITLE"; flow:to_server,established; http.uri.raw; content:"REQUEST URI"; nocase; content:"TRAVERSAL PARAM="; nocase; pcre:"/TRAVERSAL PARAM=[^\r\n\x26]{0,10}((\x2e|\x252e){1,2}|[A-Z](\x3a|%3a))(\x2f|\x252f|\x5c|\x255c)/Ii"; sid:XXXXXXX; rev:1;)

[SSRF]
alert http any any -> any any (msg:"VULN TITLE"; flow:established,to_server; http.method; content:"GET"; http.uri; content:"REQUEST URI"; nocase; content:"SSRF PARAM="; nocase; pcre:"/SSRF PARAM=(https?|files?|.?ftp|dict)(\x3a|%3a)(\x2f|%2f)/Ui"; sid:XXXXXXX; rev:1;)

[File upload]
alert http any any -> any any (msg:"VULN TITLE"; flow:established,to_server; http.uri; content:"REQUEST URI"; nocase; http.request_body; content:"name=|22|UPLOAD FIELD NAME|22|"; nocase; content:"filename="; nocase; content:"LANGUAGE OPENING TAG"; distance:0; sid:XXXXXXX; rev:1;)

[Unauthorized access / privilege bypass]
alert http any any -> any any (msg:"VULN TITLE"; flow:established,to_server; http.uri; content:"REQUEST URI"; nocase; content:"OPERATION PARAM"; nocase; http.header.raw; content:!"|0a|AUTH HEADER NAME"; nocase; content:!"|0a|COOKIE NAME"; nocase; sid:XXXXXXX; rev:1;)

Output only the Suricata rule, with no explanatory text.
`)

	return b.String()
}

// BuildOptimizationPrompt строит промпт оптимизации существующего
// правила по обратной связи и результатам валидации. // v1.0
func BuildOptimizationPrompt(currentRule, feedback, validationResult string) string {
	var b strings.Builder

	b.WriteString("You are a Suricata rule optimization expert. Improve the rule below to make it more accurate and efficient.\n\n")
	fmt.Fprintf(&b, "Current rule:\n%s\n", currentRule)

	if feedback != "" {
		fmt.Fprintf(&b, "\nUser feedback:\n%s\n", feedback)
	}

	if validationResult != "" {
		fmt.Fprintf(&b, "\nValidation result:\n%s\n", validationResult)
	}

	b.WriteString(`
Optimization requirements:
1. Keep the rule format valid
2. Improve detection accuracy and reduce false positives
3. Harden the regular expressions against bypasses, but never change the
   matching alternatives inside pcre (select|union|...)
4. Keep only: msg, flow, http.* sticky buffers, content, pcre, sid, rev
5. Remove: reference, classtype, affected_version, detection_accuracy, affected_product, metadata
6. msg keeps the vulnerability name only, no prefixes

Output only the optimized Suricata rule, with no explanatory text.
`)

	return b.String()
}
