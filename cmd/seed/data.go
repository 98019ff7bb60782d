package main

// demoPassword is shared by every demo account. Development only.
const demoPassword = "plume-demo-2024"

type demoArtist struct {
	key   string
	id    string
	name  string
	email string
}

var demoArtists = []demoArtist{
	{key: "lea", id: "00000000-0000-0000-0000-0000000000a1", name: "Léa Verbe", email: "lea@plume.dev"},
	{key: "malik", id: "00000000-0000-0000-0000-0000000000a2", name: "Malik Rime", email: "malik@plume.dev"},
	{key: "sofia", id: "00000000-0000-0000-0000-0000000000a3", name: "Sofia Slam", email: "sofia@plume.dev"},
}

type seedComment struct {
	author string
	text   string
}

type seedCreation struct {
	author    string
	title     string
	body      string
	published bool
	likedBy   []string
	comments  []seedComment
}

func seedCreations() []seedCreation {
	return []seedCreation{
		{
			author: "lea",
			title:  "Quai de l'aube",
			body: "Sur le quai de l'aube je compte les trains\n" +
				"chaque wagon porte un mot que je n'ai pas dit\n" +
				"et la ville se réveille en tenant ma main\n" +
				"comme on tient un secret qu'on n'a jamais appris.",
			published: true,
			likedBy:   []string{"malik", "sofia"},
			comments: []seedComment{
				{author: "malik", text: "Les wagons-mots, j'adore l'image."},
				{author: "sofia", text: "Ça se dirait super bien sur scène."},
			},
		},
		{
			author: "malik",
			title:  "Béton tendre",
			body: "Ma rue a des fissures qui dessinent des cartes\n" +
				"j'y lis les chemins que les anciens ont pris\n" +
				"le béton est tendre quand la nuit s'écarte\n" +
				"et que le quartier chante ce qu'il a compris.",
			published: true,
			likedBy:   []string{"lea"},
			comments: []seedComment{
				{author: "lea", text: "« Le béton est tendre », quelle chute !"},
			},
		},
		{
			author: "sofia",
			title:  "Respire",
			body: "Respire.\nAvant le premier vers il y a le souffle,\n" +
				"avant le souffle il y a la peur,\n" +
				"et avant la peur il y a toi,\n" +
				"debout, qui as déjà gagné en montant sur la scène.",
			published: true,
			likedBy:   []string{"lea", "malik"},
		},
		{
			author: "lea",
			title:  "Brouillon d'hiver",
			body:   "Des phrases en vrac pour un texte sur la neige.\nLe silence qui craque. Les pas qui s'effacent.",
		},
		{
			author: "malik",
			title:  "Refrain à trouver",
			body:   "Couplet 1 ok.\nRefrain : chercher une rime en -ance (errance ? distance ?).",
		},
	}
}
