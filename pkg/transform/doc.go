/*
Package transform holds the content operations applied to relayed text.

Every function is pure and never fails: degenerate input degrades to a best-effort
result instead of an error.

  - Summarize keeps the first three sentences.
  - ExtractLinks lists anchor targets found in page markup.
  - TranslateStub prefixes a fixed marker in place of a real translation.
  - Identity passes text through.
*/
package transform
