package reading

import "strings"

// Hepburn transcription for katakana. Digraphs are matched before
// monographs; the sokuon doubles the next consonant (t before ch); the
// prolonged sound mark repeats the previous vowel.

var romajiDigraphs = map[string]string{
	"キャ": "kya", "キュ": "kyu", "キョ": "kyo",
	"シャ": "sha", "シュ": "shu", "ショ": "sho", "シェ": "she",
	"チャ": "cha", "チュ": "chu", "チョ": "cho", "チェ": "che",
	"ニャ": "nya", "ニュ": "nyu", "ニョ": "nyo",
	"ヒャ": "hya", "ヒュ": "hyu", "ヒョ": "hyo",
	"ミャ": "mya", "ミュ": "myu", "ミョ": "myo",
	"リャ": "rya", "リュ": "ryu", "リョ": "ryo",
	"ギャ": "gya", "ギュ": "gyu", "ギョ": "gyo",
	"ジャ": "ja", "ジュ": "ju", "ジョ": "jo", "ジェ": "je",
	"ビャ": "bya", "ビュ": "byu", "ビョ": "byo",
	"ピャ": "pya", "ピュ": "pyu", "ピョ": "pyo",
	"ファ": "fa", "フィ": "fi", "フェ": "fe", "フォ": "fo",
	"ウィ": "wi", "ウェ": "we", "ウォ": "wo",
	"ティ": "ti", "ディ": "di", "デュ": "dyu", "トゥ": "tu",
	"ヴァ": "va", "ヴィ": "vi", "ヴェ": "ve", "ヴォ": "vo",
}

var romajiMonographs = map[rune]string{
	'ア': "a", 'イ': "i", 'ウ': "u", 'エ': "e", 'オ': "o",
	'カ': "ka", 'キ': "ki", 'ク': "ku", 'ケ': "ke", 'コ': "ko",
	'サ': "sa", 'シ': "shi", 'ス': "su", 'セ': "se", 'ソ': "so",
	'タ': "ta", 'チ': "chi", 'ツ': "tsu", 'テ': "te", 'ト': "to",
	'ナ': "na", 'ニ': "ni", 'ヌ': "nu", 'ネ': "ne", 'ノ': "no",
	'ハ': "ha", 'ヒ': "hi", 'フ': "fu", 'ヘ': "he", 'ホ': "ho",
	'マ': "ma", 'ミ': "mi", 'ム': "mu", 'メ': "me", 'モ': "mo",
	'ヤ': "ya", 'ユ': "yu", 'ヨ': "yo",
	'ラ': "ra", 'リ': "ri", 'ル': "ru", 'レ': "re", 'ロ': "ro",
	'ワ': "wa", 'ヲ': "o", 'ン': "n",
	'ガ': "ga", 'ギ': "gi", 'グ': "gu", 'ゲ': "ge", 'ゴ': "go",
	'ザ': "za", 'ジ': "ji", 'ズ': "zu", 'ゼ': "ze", 'ゾ': "zo",
	'ダ': "da", 'ヂ': "ji", 'ヅ': "zu", 'デ': "de", 'ド': "do",
	'バ': "ba", 'ビ': "bi", 'ブ': "bu", 'ベ': "be", 'ボ': "bo",
	'パ': "pa", 'ピ': "pi", 'プ': "pu", 'ペ': "pe", 'ポ': "po",
	'ヴ': "vu",
	'ァ': "a", 'ィ': "i", 'ゥ': "u", 'ェ': "e", 'ォ': "o",
	'ャ': "ya", 'ュ': "yu", 'ョ': "yo",
}

// Romanize converts the katakana portions of a reading to Hepburn romaji,
// capitalizing each converted run. Non-katakana runes pass through.
func Romanize(reading string) string {
	runes := []rune(HiraganaToKatakana(reading))
	var b strings.Builder
	sokuon := false
	atWordStart := true
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == 'ッ' {
			sokuon = true
			continue
		}
		if r == 'ー' {
			// repeat the vowel emitted last
			if out := b.String(); out != "" {
				last := out[len(out)-1]
				if strings.ContainsRune("aiueo", rune(last)) {
					b.WriteByte(last)
				}
			}
			continue
		}
		var syl string
		if i+1 < len(runes) {
			if d, ok := romajiDigraphs[string(runes[i:i+2])]; ok {
				syl = d
				i++
			}
		}
		if syl == "" {
			m, ok := romajiMonographs[r]
			if !ok {
				b.WriteRune(r)
				atWordStart = r == ' '
				sokuon = false
				continue
			}
			syl = m
		}
		if sokuon {
			if strings.HasPrefix(syl, "ch") {
				b.WriteByte('t')
			} else {
				b.WriteByte(syl[0])
			}
			sokuon = false
		}
		if atWordStart {
			syl = strings.ToUpper(syl[:1]) + syl[1:]
			atWordStart = false
		}
		b.WriteString(syl)
	}
	return b.String()
}
