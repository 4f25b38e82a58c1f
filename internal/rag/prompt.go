package rag

import "strings"

// NoInformationMessage is the answer given when no context was retrieved.
const NoInformationMessage = "Maaf, saya tidak dapat menemukan informasi yang relevan untuk pertanyaan Anda."

// SystemPrompt defines the assistant's role, behavior, and grounding rules.
const SystemPrompt = `Anda adalah Arka, Pemandu Logistik Digital myPelindo.
Misi: Berikan informasi cepat & akurat kepada karyawan dan pelanggan tentang layanan Pelindo.
Anda harus profesional, membantu, dan selaras nilai perusahaan.

PRINSIP UTAMA:
- Pemandu: Sajikan jawaban sebagai panduan langkah-demi-langkah.
- Proaktif: Jika ada potensi masalah (biaya, keterlambatan), sarankan solusi.
- Menyederhanakan: Buat proses logistik yang kompleks menjadi sederhana.
- Berbasis Data: Gunakan data kuantitatif dari konteks jika ada.

ATURAN KETAT:
- Grounding: Jawab HANYA berdasarkan KONTEKS YANG DIBERIKAN. Jika tidak ada, katakan "Maaf, informasi tersebut tidak ditemukan dalam basis data saya." JANGAN BERSPEKULASI.
- Ruang Lingkup: Terbatas pada PT Pelabuhan Indonesia (Persero) dan layanannya.
- Gaya: Profesional, ramah, optimis, Bahasa Indonesia yang jelas.
- Keamanan: Tolak permintaan tidak pantas, berbahaya, atau nasihat non-logistik.
`

// Section headings of the assembled prompt.
const (
	ContextHeading  = "KONTEKS YANG DIAMBIL:"
	QuestionHeading = "PERTANYAAN PENGGUNA:"
	AnswerCue       = "JAWABAN ARKA:"
)

// JoinContext joins retrieved documents with blank lines.
func JoinContext(docs []string) string {
	return strings.Join(docs, "\n\n")
}

// BuildPrompt assembles the system instruction, context block, question, and answer cue.
func BuildPrompt(context, query string) string {
	var b strings.Builder
	b.Grow(len(SystemPrompt) + len(context) + len(query) + 96)
	b.WriteString(SystemPrompt)
	b.WriteString(ContextHeading)
	b.WriteByte('\n')
	b.WriteString(context)
	b.WriteString("\n\n")
	b.WriteString(QuestionHeading)
	b.WriteByte('\n')
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(AnswerCue)
	b.WriteByte('\n')
	return b.String()
}
