package protocol

// Emergency category identifiers. This is the closed enumeration shared
// by the resolver, the classifier, and the emergency_guidance tool
// declaration. Categories without a scripted table entry are still
// valid classifications; resolving them yields a structured unknown
// result.
const (
	CategorySevereBleeding       = "severe-bleeding"
	CategoryChokingAdult         = "choking-adult"
	CategoryChokingBaby          = "choking-baby"
	CategoryCPRAdult             = "cpr-adult"
	CategoryUnconsciousBreathing = "unconscious-breathing"
	CategoryHeartAttack          = "heart-attack"
	CategoryStroke               = "stroke"
	CategorySeizure              = "seizure"
)

// Categories lists every valid emergency category identifier.
func Categories() []string {
	return []string{
		CategorySevereBleeding,
		CategoryChokingAdult,
		CategoryChokingBaby,
		CategoryCPRAdult,
		CategoryUnconsciousBreathing,
		CategoryHeartAttack,
		CategoryStroke,
		CategorySeizure,
	}
}

// IsCategory reports whether id is a member of the closed enumeration.
func IsCategory(id string) bool {
	for _, c := range Categories() {
		if c == id {
			return true
		}
	}
	return false
}

// scriptTableVersion identifies the revision of the step scripts below.
// Bump when any step text changes.
const scriptTableVersion = "2024-06-stjohn-v1"

// scripts is the static per-category step table, St John Ambulance
// protocol texts. Read-only after init; safe to share across sessions.
var scripts = map[string][]string{
	CategorySevereBleeding: {
		"Apply direct pressure to the wound using a clean cloth, towel, or clothing. Press firmly directly on the bleeding area.",
		"Call 999 or 112 immediately if you haven't already. Tell them it's severe bleeding.",
		"Keep applying pressure. Don't remove the cloth if blood soaks through - add more cloth on top.",
		"If possible, elevate the injured area above the heart level while maintaining pressure.",
		"Keep the person warm and reassure them. Monitor their breathing and consciousness.",
		"If bleeding continues through dressing, remove and reapply with fresh dressing using firm pressure.",
	},
	CategoryChokingAdult: {
		"Ask 'Are you choking?' If they can't speak, cough, or breathe, continue with back blows.",
		"Lean them forward and give up to 5 sharp back blows between the shoulder blades with the heel of your hand.",
		"Check their mouth for any visible obstruction. Remove with fingertips if you can see it - don't sweep blindly.",
		"If choking continues, give up to 5 abdominal thrusts. Stand behind them, link your hands below their rib cage and pull sharply inwards and upwards.",
		"Check their mouth again. If obstruction still hasn't cleared, call 999/112.",
		"Continue cycles of 5 back blows and 5 abdominal thrusts until help arrives or obstruction clears.",
	},
	CategoryChokingBaby: {
		"Lay the baby face down along your thigh while supporting their head. Keep the baby's head lower than their body.",
		"Give up to 5 back blows between the shoulder blades with the heel of your hand. Use less force than for an adult.",
		"Turn the baby over and check their mouth for visible obstructions. Remove any visible obstruction with your fingertips - don't sweep blindly.",
		"If choking persists, give up to 5 chest thrusts. Place two fingers on the breastbone, one finger's breadth below the nipple line, and push with a sharp downward motion.",
		"If the obstruction hasn't cleared, dial 999 or 112 immediately. Continue cycles of 5 back blows and 5 chest thrusts while waiting for help.",
	},
	CategoryCPRAdult: {
		"Check for response by shouting 'Are you okay?' and tapping their shoulders firmly.",
		"Open their airway by tilting their head back and lifting their chin.",
		"Check for breathing for no more than 10 seconds. Look for chest movement.",
		"Call 999/112 immediately. Ask for an ambulance and AED if available.",
		"Place heel of one hand on center of chest, other hand on top with fingers interlocked.",
		"Give 30 chest compressions, pushing hard and fast 5-6cm deep at 100-120 compressions per minute.",
		"Give 2 rescue breaths. Tilt head back, lift chin, pinch nose, seal over mouth and give 1-second breath.",
		"Continue 30 compressions to 2 breaths until emergency services arrive or they start breathing normally.",
	},
	CategoryUnconsciousBreathing: {
		"Confirm they are breathing normally but unresponsive. If they are not breathing normally, begin CPR immediately.",
		"Call 999 or 112 immediately. Tell them the casualty is unconscious but breathing.",
		"Place their nearest arm at a right angle, elbow bent, palm facing up. This will support them when rolled.",
		"Bring their far arm across the chest and place the back of their hand under their near cheek.",
		"Grasp the far leg above the knee, pull it up until the foot is flat on the ground, then roll them towards you. Keep their hand against their cheek during the roll.",
		"Adjust the upper leg so the hip and knee are at right angles. Tilt the head back to keep the airway open and monitor breathing continuously.",
	},
}

// Steps returns the script for a category, nil when the category has no
// scripted table entry.
func Steps(category string) []string {
	return scripts[category]
}

// ScriptVersion returns the revision identifier of the step table.
func ScriptVersion() string {
	return scriptTableVersion
}
