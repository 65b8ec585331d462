package scorer

import "github.com/sells-group/lead-classifier/internal/model"

// DefaultRulesVersion identifies the built-in rule set.
const DefaultRulesVersion = "2025-12-scoring-v2"

// DefaultRules returns the canonical built-in classification policy. All
// phrases are lower-case Spanish literals; accented and unaccented spellings
// are listed separately because leads type both.
func DefaultRules() Rules {
	return Rules{
		Version: DefaultRulesVersion,
		Exclusion: ExclusionRules{
			Repudiation: []string{
				"no dejé mis datos", "no deje mis datos",
				"no solicité", "no solicite",
				"no pedí", "no pedi",
				"no me inscribí", "no me inscribi",
				"número equivocado", "numero equivocado",
				"se equivocaron",
				"no es mi número", "no es mi numero",
				"no di mis datos", "no proporcioné", "no proporcione",
			},
			Hostile: []string{
				"déjame en paz", "dejame en paz",
				"no me molesten", "dejen de molestar",
				"spam", "acoso", "denunciar",
				"voy a denunciar", "bloqueado",
				"idiota", "estúpido", "estupido",
				"maldito", "basura", "porquería", "porqueria",
			},
			IncoherentPatterns: []string{
				`^\pL{1,2}$`,
				`^[0-9]{1,2}$`,
				`^\.+$`,
				`^[?!¿¡.,;:]+$`,
			},
			IncoherentMaxLen: 5,
		},
		Motivation: MotivationRules{
			Strong: Band{Weight: 25, Phrases: []string{
				"mejorar mi perfil", "mejorar perfil", "mejorar profesional",
				"perfil profesional", "carrera profesional", "crecimiento profesional",
				"necesito capacitarme", "quiero especializarme",
				"me interesa mucho", "muy interesado", "muy interesada",
				"ascenso", "reconvertir", "reconversión", "reconversion",
				"superación", "superacion", "profesional",
			}},
			Moderate: Band{Weight: 15, Phrases: []string{
				"trabajo", "laboral", "crecer", "crecimiento",
				"actualización", "actualizacion", "actualizarme", "actualizado",
				"capacitarme", "capacitación", "capacitacion",
				"formarme", "formación", "formacion",
				"entrenamiento", "entrenarme", "brochure",
			}},
			LaborImpact: Band{Weight: 15, Phrases: []string{
				"puesto", "salario", "sueldo", "aumento",
				"empresa", "promoción", "promocion", "ascender",
				"jefe", "gerente", "director",
				"cv", "curriculum", "currículum",
				"conseguir empleo", "buscar trabajo", "nuevo trabajo",
			}},
			Vague: Band{Weight: 5, Phrases: []string{
				"me interesa aprender", "quiero aprender",
				"me gustaría saber", "me gustaria saber",
				"por curiosidad", "solo información", "solo informacion",
				"consultar por", "quisiera consultar", "quiero consultar",
				"información sobre", "informacion sobre",
				"me interesa", "estoy interesado", "estoy interesada",
			}},
			StrongObjection: Band{Weight: -10, Phrases: []string{
				"no me interesa", "no estoy interesado", "no estoy interesada",
				"no estoy buscando", "solo miro", "solo mirando",
			}},
			SoftObjection: Band{Weight: -5, Phrases: []string{
				"no estoy seguro", "no estoy segura",
				"tal vez después", "tal vez despues",
				"quizás más adelante", "quizas mas adelante",
				"lo voy a pensar", "no sé",
			}},
			Negations: []string{
				"no me interesa", "no estoy interesado", "no estoy interesada",
				"no necesito", "no quiero", "no busco", "no estoy buscando",
				"ya no",
			},
			Cap: 40,
		},
		Payment: PaymentRules{
			Direct: Band{Weight: 30, Phrases: []string{
				"ya pagué", "ya pague", "listo el pago",
				"voy a pagar", "quiero pagar", "cómo pago", "como pago",
				"envié el pago", "envie el pago",
				"link de pago", "enlace de pago",
				"transferencia", "comprobante", "depósito", "deposito", "depositar",
				"pago", "pagar", "cuenta", "tarjeta", "cupón", "cupon",
				"inscribirme", "inscripción", "inscripcion",
				"matricularme", "matrícula", "matricula",
				"reservar cupo", "reserva de cupo",
			}},
			Logistics: Band{Weight: 20, Phrases: []string{
				"pago en cuotas", "cuotas", "financiamiento", "financiar",
				"formas de pago", "métodos de pago", "metodos de pago",
				"a plazos", "plazo", "pueden financiar",
				"hay descuento", "descuentos", "beca", "becas", "ayuda financiera",
				"cuando inicia", "cuándo inicia", "cuando empieza", "cuándo empieza",
				"fecha de inicio", "próximo inicio", "proximo inicio",
				"inicio de clases", "inicio del programa", "inicio del diplomado",
				"inicio del curso", "inicio de",
			}},
			PriceInquiry: Band{Weight: 5, Phrases: []string{
				"cuánto cuesta", "cuanto cuesta", "cuánto vale", "cuanto vale",
				"qué precio", "que precio", "precio", "costo", "valor",
				"inversión", "inversion",
			}},
			NoPay: Band{Weight: -30, Phrases: []string{
				"no voy a pagar", "no pagaré", "no pagare",
				"no tengo para pagar", "no puedo invertir", "imposible pagar",
				"fuera de mi presupuesto", "no me alcanza", "gratis",
			}},
			PriceObjection: Band{Weight: -15, Phrases: []string{
				"muy caro", "caro", "costoso", "no puedo pagar",
				"no tengo dinero", "no tengo plata",
				"por ahora no", "más adelante", "mas adelante",
				"lo pensaré", "lo pensare", "tengo que pensar",
				"no es para mí", "no es para mi",
				"otro momento", "después veo", "despues veo",
			}},
			Negations: []string{
				"no voy a pagar", "no pagaré", "no pagare", "no puedo pagar",
				"no tengo para pagar", "imposible pagar", "no quiero pagar",
				"no me voy a inscribir", "no me interesa",
			},
			Instructions: []string{
				"número de cuenta", "numero de cuenta", "cuenta bancaria",
				"datos bancarios", "link de pago", "enlace de pago",
				"transferencia", "depósito", "deposito",
				"envíanos el comprobante", "envianos el comprobante",
				"comprobante", "realizar el pago", "puedes pagar",
			},
			ProofContentTypes: []model.ContentType{
				model.ContentImage, model.ContentDocument, model.ContentFile,
			},
			ProofWeight:      25,
			DisclosureWeight: 20,
			Cap:              30,
		},
		Behavior: BehaviorRules{
			FastHours:              8,
			SlowHours:              24,
			FastWeight:             20,
			ModerateWeight:         10,
			SlowWeight:             5,
			UserInitiatedWeight:    10,
			FollowUpMinMessages:    3,
			FollowUpWeight:         10,
			PartialGhostingPenalty: -5,
			EngagementWeight:       5,
			GhostingPenalty:        -10,
			Cap:                    30,
		},
		Classification: ClassificationRules{
			SQLThreshold: 50,
			MinTotal:     1,
			MaxTotal:     100,
			ClosingPhrases: []string{
				"gracias", "muchas gracias", "adios", "adiós", "chao", "bye",
				"hasta luego",
			},
		},
	}
}
