package mapview

import "github.com/michalswi/jogjamap/dataset"

type message int

const (
	msgGeoPermissionDenied message = iota + 1
	msgGeoUnavailable
	msgGeoTimeout
	msgGeoUnsupported
	msgGeoUnknown
	msgFullscreenFailed
	msgMediaEmpty
	msgOpeningHours
	msgEntryFee
	msgFeeLocal
	msgFeeForeign
	msgFeeFree
	msgFacilities
	msgProducts
	msgPriceRange
	msgContact
	msgPhone
	msgWhatsApp
	msgEmail
)

func (m message) text() dataset.Localized {
	switch m {
	case msgGeoPermissionDenied:
		return dataset.Localized{
			ID: "Izin lokasi ditolak. Aktifkan akses lokasi di pengaturan browser.",
			EN: "Location permission denied. Enable location access in your browser settings.",
		}
	case msgGeoUnavailable:
		return dataset.Localized{
			ID: "Informasi lokasi tidak tersedia.",
			EN: "Location information is unavailable.",
		}
	case msgGeoTimeout:
		return dataset.Localized{
			ID: "Waktu permintaan lokasi habis. Coba lagi.",
			EN: "The location request timed out. Please try again.",
		}
	case msgGeoUnsupported:
		return dataset.Localized{
			ID: "Browser Anda tidak mendukung geolokasi.",
			EN: "Geolocation is not supported by your browser.",
		}
	case msgGeoUnknown:
		return dataset.Localized{
			ID: "Gagal mendapatkan lokasi Anda.",
			EN: "Unable to get your location.",
		}
	case msgFullscreenFailed:
		return dataset.Localized{
			ID: "Mode layar penuh tidak dapat diaktifkan.",
			EN: "Fullscreen mode could not be enabled.",
		}
	case msgMediaEmpty:
		return dataset.Localized{ID: "Belum ada foto untuk lokasi ini.", EN: "No photos for this location yet."}
	case msgOpeningHours:
		return dataset.Localized{ID: "Jam Buka", EN: "Opening Hours"}
	case msgEntryFee:
		return dataset.Localized{ID: "Harga Tiket", EN: "Entry Fee"}
	case msgFeeLocal:
		return dataset.Localized{ID: "Wisatawan domestik", EN: "Domestic visitors"}
	case msgFeeForeign:
		return dataset.Localized{ID: "Wisatawan mancanegara", EN: "Foreign visitors"}
	case msgFeeFree:
		return dataset.Localized{ID: "Gratis", EN: "Free"}
	case msgFacilities:
		return dataset.Localized{ID: "Fasilitas", EN: "Facilities"}
	case msgProducts:
		return dataset.Localized{ID: "Produk", EN: "Products"}
	case msgPriceRange:
		return dataset.Localized{ID: "Kisaran Harga", EN: "Price Range"}
	case msgContact:
		return dataset.Localized{ID: "Kontak", EN: "Contact"}
	case msgPhone:
		return dataset.Localized{ID: "Telepon", EN: "Phone"}
	case msgWhatsApp:
		return dataset.Localized{ID: "WhatsApp", EN: "WhatsApp"}
	case msgEmail:
		return dataset.Localized{ID: "Email", EN: "Email"}
	}
	return dataset.Localized{}
}

func (m message) in(locale dataset.Locale) string {
	return m.text().In(locale)
}

// notify shows a non-blocking message to the user.
func (v *Viewer) notify(level, code string, m message) {
	v.emit.Emit(Command{Type: CmdNotify, Data: notification{
		Level:   level,
		Code:    code,
		Message: m.in(v.locale),
	}})
}
