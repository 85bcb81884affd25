// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

// repairJSON patches the malformed JSON that small local models
// occasionally emit for entity and query payloads. The one drift seen
// in practice is a dropped opening quote on an object key, e.g.
// `, legal_references":` instead of `, "legal_references":`.
func repairJSON(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes)+16)

	i := 0
	for i < len(runes) {
		ch := runes[i]

		// A key can only start after { or ,
		if ch == '{' || ch == ',' {
			out = append(out, ch)
			i++

			for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
				out = append(out, runes[i])
				i++
			}

			// Bare word where a quoted key should be
			if i < len(runes) && runes[i] != '"' && isLetter(runes[i]) {
				keyStart := i
				for i < len(runes) && (isLetter(runes[i]) || runes[i] == '_' || runes[i] == ' ') {
					i++
				}
				keyEnd := i

				// `word":` confirms the opening quote went missing;
				// anything else was not a key after all.
				if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
					out = append(out, '"')
					for j := keyStart; j < keyEnd; j++ {
						if runes[j] != ' ' || (j > keyStart && j < keyEnd-1) {
							out = append(out, runes[j])
						}
					}
					// The closing quote at runes[i] is copied on the
					// next pass
					continue
				}
				out = append(out, runes[keyStart:i]...)
			}
		} else {
			out = append(out, ch)
			i++
		}
	}

	return string(out)
}
